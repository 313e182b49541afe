// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Domain identifies one category of privacy control.
type Domain string

const (
	DomainTelemetry   Domain = "telemetry"
	DomainFirewall    Domain = "firewall"
	DomainPermissions Domain = "permissions"
	DomainCleanup     Domain = "cleanup"
	DomainPackages    Domain = "packages"
)

// DesiredState is the target passed to an apply call.
// Which registry value, rule or flag it maps to is owned by each adapter.
type DesiredState int

const (
	Blocked DesiredState = iota
	Allowed
)

func (s DesiredState) String() string {
	switch s {
	case Blocked:
		return "blocked"
	case Allowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// ParseDesiredState accepts "block"/"blocked" and "allow"/"allowed".
func ParseDesiredState(s string) (DesiredState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "blocked":
		return Blocked, nil
	case "allow", "allowed":
		return Allowed, nil
	}
	return Blocked, fmt.Errorf("unknown desired state %q", s)
}

// ConfigItem is one controllable setting in one backend.
// It is a snapshot: re-created on every scan, never mutated in place.
type ConfigItem struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	CurrentlyBlocked bool   `json:"currently_blocked"`
	ScanError        string `json:"scan_error,omitempty"` // State could not be read; item reported as not blocked
}

// OperationOutcome is the result of applying a desired state to one item.
type OperationOutcome struct {
	ItemID      string `json:"item_id"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// BulkResult aggregates the outcomes of one bulk apply.
// SuccessCount + FailureCount == len(Outcomes) always holds when built via Add.
type BulkResult struct {
	Outcomes     []OperationOutcome `json:"outcomes"`
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
}

// Add records the outcome for one item. A nil error is a success.
func (r *BulkResult) Add(itemID string, err error) {
	outcome := OperationOutcome{ItemID: itemID, Success: err == nil}
	if err != nil {
		outcome.ErrorDetail = err.Error()
		r.FailureCount++
	} else {
		r.SuccessCount++
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// OK reports whether every attempted item succeeded.
func (r BulkResult) OK() bool {
	return r.FailureCount == 0
}

// MaxSummaryErrors is how many error details a summary lists.
const MaxSummaryErrors = 5

// Summary renders a one-line count followed by at most max error details.
func (r BulkResult) Summary(max int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", r.SuccessCount, r.FailureCount)
	if r.FailureCount == 0 {
		return b.String()
	}

	shown := 0
	for _, o := range r.Outcomes {
		if o.Success {
			continue
		}
		if shown == max {
			fmt.Fprintf(&b, "\n  ... and %d more", r.FailureCount-shown)
			break
		}
		fmt.Fprintf(&b, "\n  %s: %s", o.ItemID, o.ErrorDetail)
		shown++
	}
	return b.String()
}

// ProgressFunc is called before each item of a bulk operation.
// current is 1-based.
type ProgressFunc func(current, total int, label string)

// PrivacyScore is the normalized score of one domain.
type PrivacyScore struct {
	Domain       Domain `json:"domain"`
	BlockedCount int    `json:"blocked_count"`
	TotalCount   int    `json:"total_count"`
	Score        int    `json:"score"`
}

// Trend is the direction of the overall score between the last two entries.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ScoreHistoryEntry is one day of score history.
// Persisted field names follow the history document format.
type ScoreHistoryEntry struct {
	Date             string `json:"date"` // YYYY-MM-DD
	OverallScore     int    `json:"score"`
	TelemetryScore   int    `json:"telemetry_score"`
	PermissionsScore int    `json:"permissions_score"`
	FirewallBlocked  int    `json:"firewall_blocked"`
	FirewallTotal    int    `json:"firewall_total"`
}

// HistoryDateLayout is the calendar-day format used by history entries.
const HistoryDateLayout = "2006-01-02"

// ScoreHistoryDocument is the persisted history file.
type ScoreHistoryDocument struct {
	Version string              `json:"version"`
	Entries []ScoreHistoryEntry `json:"entries"`
}

// NetworkConnection is one live connection row.
type NetworkConnection struct {
	PID           int    `json:"pid"`
	ProcessName   string `json:"process_name"`
	LocalAddress  string `json:"local_address"`
	RemoteAddress string `json:"remote_address"`
	RemoteIP      string `json:"remote_ip"`
	ConnState     string `json:"conn_state"`
	Hostname      string `json:"hostname,omitempty"` // Empty until resolved in the background
	IsSuspect     bool   `json:"is_suspect"`
}

// FirewallEndpoint is a static catalog entry for a telemetry host.
type FirewallEndpoint struct {
	Domain      string   `json:"domain"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Addresses   []string `json:"addresses"`
}

// FirewallRuleStatus is derived per endpoint from the presence of its rule.
type FirewallRuleStatus struct {
	Endpoint FirewallEndpoint `json:"endpoint"`
	RuleName string           `json:"rule_name"`
	Active   bool             `json:"active"`
	Err      string           `json:"error,omitempty"`
}

// UpdatePolicyStatus is the Windows Update group policy as found in the
// registry. Configured is false when the policy key does not exist.
type UpdatePolicyStatus struct {
	Configured   bool   `json:"configured"`
	NoAutoUpdate bool   `json:"no_auto_update"`
	AUOptions    uint32 `json:"au_options"`
}

// Capability is a consent-store capability key (e.g. "webcam").
type Capability string

// PermissionStatus is the global state of one capability plus its per-app overrides.
type PermissionStatus struct {
	Capability  Capability      `json:"capability"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	Apps        []AppPermission `json:"apps"`
}

// AppPermission is a per-application consent override.
type AppPermission struct {
	AppName           string     `json:"app_name"`
	PackageFamilyName string     `json:"package_family_name"`
	Capability        Capability `json:"capability"`
	Allowed           bool       `json:"allowed"`
}

// CleanupKind distinguishes how a cleanup target is cleaned.
type CleanupKind string

const (
	CleanupPath     CleanupKind = "path"
	CleanupRegistry CleanupKind = "registry"
	CleanupAction   CleanupKind = "action"
)

// CleanupItem is the scanned state of one cleanup target.
type CleanupItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Kind        CleanupKind `json:"kind"`
	SizeBytes   int64       `json:"size_bytes"`
	CanClean    bool        `json:"can_clean"`
}

// CleanupReport is the aggregate result of a cleanup run.
type CleanupReport struct {
	BytesCleaned int64      `json:"bytes_cleaned"`
	Message      string     `json:"message"`
	Result       BulkResult `json:"result"`
}

// InstalledPackage is one installed application package.
type InstalledPackage struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Version     string `json:"version"`
	Publisher   string `json:"publisher"`
	IsBloatware bool   `json:"is_bloatware"`
	IsCritical  bool   `json:"is_critical"`
}

// Profile is an exported settings document.
type Profile struct {
	Version   string         `json:"version"`
	App       string         `json:"app"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data"`
}

// SavedProfile describes a profile kept in the profile store.
type SavedProfile struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

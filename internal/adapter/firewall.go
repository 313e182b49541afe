package adapter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// FirewallAdapter manages one outbound block rule per telemetry endpoint via netsh.
type FirewallAdapter struct {
	runner    domain.CommandRunner
	logger    *zap.Logger
	endpoints []domain.FirewallEndpoint
}

// NewFirewallAdapter creates an adapter over the built-in endpoint catalog.
func NewFirewallAdapter(runner domain.CommandRunner, logger *zap.Logger) *FirewallAdapter {
	return NewFirewallAdapterWithEndpoints(runner, logger, catalog.Endpoints)
}

// NewFirewallAdapterWithEndpoints creates an adapter with a custom catalog (for testing).
func NewFirewallAdapterWithEndpoints(runner domain.CommandRunner, logger *zap.Logger, endpoints []domain.FirewallEndpoint) *FirewallAdapter {
	return &FirewallAdapter{runner: runner, logger: logger, endpoints: endpoints}
}

func (a *FirewallAdapter) Domain() domain.Domain {
	return domain.DomainFirewall
}

// Endpoints returns the catalog in order.
func (a *FirewallAdapter) Endpoints() []domain.FirewallEndpoint {
	return a.endpoints
}

// Categories returns the sorted distinct endpoint categories.
func (a *FirewallAdapter) Categories() []string {
	return catalog.EndpointCategories(a.endpoints)
}

func netsh(ctx context.Context, r domain.CommandRunner, args ...string) (domain.CommandResult, error) {
	return r.Run(ctx, "netsh", append([]string{"advfirewall"}, args...)...)
}

// RuleActive reports whether the endpoint's block rule exists.
func (a *FirewallAdapter) RuleActive(ctx context.Context, ep domain.FirewallEndpoint) (bool, error) {
	res, err := netsh(ctx, a.runner, "firewall", "show", "rule", "name="+catalog.RuleName(ep.Domain))
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0 && !strings.Contains(res.Stdout, "No rules match"), nil
}

// Status derives the rule status of every endpoint.
func (a *FirewallAdapter) Status(ctx context.Context) []domain.FirewallRuleStatus {
	statuses := make([]domain.FirewallRuleStatus, 0, len(a.endpoints))
	for _, ep := range a.endpoints {
		st := domain.FirewallRuleStatus{Endpoint: ep, RuleName: catalog.RuleName(ep.Domain)}
		active, err := a.RuleActive(ctx, ep)
		if err != nil {
			st.Err = err.Error()
		}
		st.Active = active
		statuses = append(statuses, st)
	}
	return statuses
}

// Scan lists every endpoint; blocked iff its rule exists.
func (a *FirewallAdapter) Scan(ctx context.Context) ([]domain.ConfigItem, error) {
	items := make([]domain.ConfigItem, 0, len(a.endpoints))
	var errs []error

	for _, ep := range a.endpoints {
		item := domain.ConfigItem{
			ID:          ep.Domain,
			DisplayName: ep.Domain,
			Description: ep.Description,
			Category:    ep.Category,
		}
		active, err := a.RuleActive(ctx, ep)
		if err != nil {
			errs = append(errs, err)
			item.ScanError = err.Error()
		}
		item.CurrentlyBlocked = active
		items = append(items, item)
	}

	if err := enumerationError(a.Domain(), items, errs); err != nil {
		return nil, err
	}
	return items, nil
}

// BlockEndpoint adds an outbound block rule unless one already exists.
// netsh accepts duplicate names, so the rule is looked up first.
func (a *FirewallAdapter) BlockEndpoint(ctx context.Context, ep domain.FirewallEndpoint) error {
	name := catalog.RuleName(ep.Domain)
	active, err := a.RuleActive(ctx, ep)
	if err != nil {
		return err
	}
	if active {
		return nil
	}
	res, err := netsh(ctx, a.runner, "firewall", "add", "rule",
		"name="+name,
		"dir=out",
		"action=block",
		"remoteip="+strings.Join(ep.Addresses, ","),
		"description=Privacy Dashboard: Block "+ep.Description,
		"enable=yes",
	)
	if err != nil {
		return err
	}
	if res.ExitCode == 0 || strings.Contains(strings.ToLower(res.Diagnostic()), "already exists") {
		return nil
	}
	return toolError("netsh add rule", name, res)
}

// UnblockEndpoint deletes the endpoint's rule. A missing rule is success.
func (a *FirewallAdapter) UnblockEndpoint(ctx context.Context, ep domain.FirewallEndpoint) error {
	name := catalog.RuleName(ep.Domain)
	res, err := netsh(ctx, a.runner, "firewall", "delete", "rule", "name="+name)
	if err != nil {
		return err
	}
	if res.ExitCode == 0 || strings.Contains(res.Diagnostic(), "No rules match") {
		return nil
	}
	return toolError("netsh delete rule", name, res)
}

// Apply adds (Blocked) or deletes (Allowed) the rule of each item.
func (a *FirewallAdapter) Apply(ctx context.Context, items []domain.ConfigItem, desired domain.DesiredState, progress domain.ProgressFunc) domain.BulkResult {
	return applyEach(ctx, a.logger, a.Domain(), items, desired, progress, func(ctx context.Context, item domain.ConfigItem) error {
		ep, ok := a.endpoint(item.ID)
		if !ok {
			return unknownItem(item)
		}
		if desired == domain.Blocked {
			return a.BlockEndpoint(ctx, ep)
		}
		return a.UnblockEndpoint(ctx, ep)
	})
}

// BlockAll blocks every catalog endpoint.
func (a *FirewallAdapter) BlockAll(ctx context.Context, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, endpointItems(a.endpoints), domain.Blocked, progress)
}

// UnblockAll removes every catalog rule.
func (a *FirewallAdapter) UnblockAll(ctx context.Context, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, endpointItems(a.endpoints), domain.Allowed, progress)
}

// BlockCategory blocks the endpoints of one category.
func (a *FirewallAdapter) BlockCategory(ctx context.Context, category string, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, endpointItems(catalog.EndpointsInCategory(a.endpoints, category)), domain.Blocked, progress)
}

// UnblockCategory removes the rules of one category.
func (a *FirewallAdapter) UnblockCategory(ctx context.Context, category string, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, endpointItems(catalog.EndpointsInCategory(a.endpoints, category)), domain.Allowed, progress)
}

// ExportRules writes the full firewall policy to path.
func (a *FirewallAdapter) ExportRules(ctx context.Context, path string) error {
	res, err := netsh(ctx, a.runner, "export", path)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return toolError("netsh export", path, res)
	}
	return nil
}

// HasAdminRights probes whether netsh can read the current profile.
func (a *FirewallAdapter) HasAdminRights(ctx context.Context) bool {
	res, err := netsh(ctx, a.runner, "show", "currentprofile")
	return err == nil && res.ExitCode == 0
}

func (a *FirewallAdapter) endpoint(d string) (domain.FirewallEndpoint, bool) {
	for _, ep := range a.endpoints {
		if ep.Domain == d {
			return ep, true
		}
	}
	return domain.FirewallEndpoint{}, false
}

func endpointItems(endpoints []domain.FirewallEndpoint) []domain.ConfigItem {
	items := make([]domain.ConfigItem, 0, len(endpoints))
	for _, ep := range endpoints {
		items = append(items, domain.ConfigItem{
			ID:          ep.Domain,
			DisplayName: ep.Domain,
			Description: ep.Description,
			Category:    ep.Category,
		})
	}
	return items
}

// Ensure FirewallAdapter implements domain.Adapter.
var _ domain.Adapter = (*FirewallAdapter)(nil)

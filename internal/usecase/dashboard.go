package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// CleanupScanner is the cleanup adapter as the dashboard needs it.
// ScanSized measures each target once for both the items and the byte total.
type CleanupScanner interface {
	domain.Adapter
	ScanSized(ctx context.Context) ([]domain.ConfigItem, int64, error)
}

// Snapshot is one dashboard refresh.
type Snapshot struct {
	Telemetry      domain.PrivacyScore `json:"telemetry"`
	Permissions    domain.PrivacyScore `json:"permissions"`
	Firewall       domain.PrivacyScore `json:"firewall"`
	Cleanup        domain.PrivacyScore `json:"cleanup"`
	Overall        int                 `json:"overall"`
	CleanableBytes int64               `json:"cleanable_bytes"`
	Trend          domain.Trend        `json:"trend"`
	RefreshedAt    time.Time           `json:"refreshed_at"`
}

// Scores returns the four domain scores in display order.
func (s *Snapshot) Scores() []domain.PrivacyScore {
	return []domain.PrivacyScore{s.Telemetry, s.Permissions, s.Firewall, s.Cleanup}
}

// Dashboard aggregates the adapters into scores and records history.
type Dashboard struct {
	telemetry   domain.Adapter
	permissions domain.Adapter
	firewall    domain.Adapter
	cleanup     CleanupScanner
	history     *ScoreHistory
	logger      *zap.Logger
}

// NewDashboard creates a dashboard over the four scored adapters.
func NewDashboard(
	telemetry domain.Adapter,
	permissions domain.Adapter,
	firewall domain.Adapter,
	cleanup CleanupScanner,
	history *ScoreHistory,
	logger *zap.Logger,
) *Dashboard {
	return &Dashboard{
		telemetry:   telemetry,
		permissions: permissions,
		firewall:    firewall,
		cleanup:     cleanup,
		history:     history,
		logger:      logger,
	}
}

// History returns the score history the dashboard records into.
func (d *Dashboard) History() *ScoreHistory {
	return d.history
}

// Refresh scans all four domains concurrently and records today's entry.
// A failing domain scores as empty; the snapshot is always returned and
// every failure is reported in the aggregated error.
func (d *Dashboard) Refresh(ctx context.Context) (*Snapshot, error) {
	var (
		g              errgroup.Group
		scores         [4]domain.PrivacyScore
		errs           [4]error
		cleanableBytes int64
	)

	const cleanupSlot = 3
	adapters := [4]domain.Adapter{d.telemetry, d.permissions, d.firewall, d.cleanup}
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			var items []domain.ConfigItem
			var err error
			if i == cleanupSlot {
				items, cleanableBytes, err = d.cleanup.ScanSized(ctx)
			} else {
				items, err = a.Scan(ctx)
			}
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", a.Domain(), err)
				d.logger.Warn("dashboard scan failed",
					zap.String("domain", string(a.Domain())),
					zap.Error(err))
			}
			scores[i] = ScoreItems(a.Domain(), items)
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	snap := &Snapshot{
		Telemetry:      scores[0],
		Permissions:    scores[1],
		Firewall:       scores[2],
		Cleanup:        scores[3],
		Overall:        OverallScore(scores[0].Score, scores[1].Score),
		CleanableBytes: cleanableBytes,
		RefreshedAt:    time.Now(),
	}

	if d.history != nil {
		err := d.history.Record(domain.ScoreHistoryEntry{
			OverallScore:     snap.Overall,
			TelemetryScore:   snap.Telemetry.Score,
			PermissionsScore: snap.Permissions.Score,
			FirewallBlocked:  snap.Firewall.BlockedCount,
			FirewallTotal:    snap.Firewall.TotalCount,
		})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("record history: %w", err))
		}
		snap.Trend = d.history.Trend()
	} else {
		snap.Trend = domain.TrendStable
	}

	d.logger.Info("dashboard refreshed",
		zap.Int("overall", snap.Overall),
		zap.Int("telemetry", snap.Telemetry.Score),
		zap.Int("permissions", snap.Permissions.Score),
		zap.Int("firewall", snap.Firewall.Score),
		zap.Int64("cleanable_bytes", snap.CleanableBytes))

	return snap, result.ErrorOrNil()
}

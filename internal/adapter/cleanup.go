package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// CleanupAdapter clears tracking artifacts: files, MRU registry values and
// the advertising ID and activity history actions.
type CleanupAdapter struct {
	fs      domain.FileSystemManager
	store   domain.ConfigStore
	logger  *zap.Logger
	targets []catalog.CleanupTarget
	dbGlobs []glob.Glob
	newID   func() (string, error)
}

// NewCleanupAdapter creates an adapter over the targets resolved from env.
func NewCleanupAdapter(fs domain.FileSystemManager, store domain.ConfigStore, env catalog.Env, logger *zap.Logger) *CleanupAdapter {
	return NewCleanupAdapterWithTargets(fs, store, logger, catalog.CleanupTargets(env))
}

// NewCleanupAdapterWithTargets creates an adapter with a custom target list (for testing).
func NewCleanupAdapterWithTargets(fs domain.FileSystemManager, store domain.ConfigStore, logger *zap.Logger, targets []catalog.CleanupTarget) *CleanupAdapter {
	globs := make([]glob.Glob, 0, len(catalog.ActivityDBPatterns))
	for _, p := range catalog.ActivityDBPatterns {
		globs = append(globs, glob.MustCompile(p))
	}
	return &CleanupAdapter{
		fs:      fs,
		store:   store,
		logger:  logger,
		targets: targets,
		dbGlobs: globs,
		newID:   newAdvertisingID,
	}
}

// newAdvertisingID returns a random UUID in upper case.
func newAdvertisingID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return strings.ToUpper(id.String()), nil
}

func (a *CleanupAdapter) Domain() domain.Domain {
	return domain.DomainCleanup
}

// Categories returns the distinct target categories in catalog order.
func (a *CleanupAdapter) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range a.targets {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out
}

// Targets measures every target.
func (a *CleanupAdapter) Targets(ctx context.Context) []domain.CleanupItem {
	items := make([]domain.CleanupItem, 0, len(a.targets))
	for _, t := range a.targets {
		item, _, _ := a.measure(t)
		items = append(items, item)
	}
	return items
}

// TotalSize sums the byte size of every target.
func (a *CleanupAdapter) TotalSize(ctx context.Context) int64 {
	var total int64
	for _, item := range a.Targets(ctx) {
		total += item.SizeBytes
	}
	return total
}

// measure returns the cleanup item, whether nothing is left to clean,
// and any read failure.
func (a *CleanupAdapter) measure(t catalog.CleanupTarget) (domain.CleanupItem, bool, error) {
	item := domain.CleanupItem{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Kind:        t.Kind,
	}

	switch t.Kind {
	case domain.CleanupPath:
		if t.Path == "" || !a.fs.Exists(t.Path) {
			return item, true, nil
		}
		item.SizeBytes = a.fs.Size(t.Path)
		item.CanClean = true
		return item, item.SizeBytes == 0, nil

	case domain.CleanupRegistry:
		names, err := a.clearableValues(t)
		if err != nil {
			return item, false, err
		}
		item.CanClean = len(names) > 0
		return item, len(names) == 0, nil

	case domain.CleanupAction:
		return a.measureAction(t, item)
	}
	return item, false, domain.Unexpectedf("unknown target kind %q", t.Kind)
}

func (a *CleanupAdapter) measureAction(t catalog.CleanupTarget, item domain.CleanupItem) (domain.CleanupItem, bool, error) {
	switch t.ID {
	case catalog.ActionAdvertisingID:
		// Clean once the ID is turned off. A reset always writes a new Id.
		item.CanClean = true
		v, err := a.store.GetDWORD(t.Hive, t.Key, catalog.AdvertisingOnValue)
		if errors.Is(err, domain.ErrNotFound) {
			return item, false, nil
		}
		return item, err == nil && v == 0, err

	case catalog.ActionActivityHistory:
		if t.Path != "" && a.fs.Exists(t.Path) {
			item.SizeBytes = a.activitySize(t.Path)
		}
		item.CanClean = true
		feedOff := true
		for _, name := range catalog.ActivityPolicyValues {
			v, err := a.store.GetDWORD(domain.HiveLocalMachine, catalog.SystemPolicyPath, name)
			if err != nil || v != 0 {
				feedOff = false
				break
			}
		}
		return item, item.SizeBytes == 0 && feedOff, nil
	}
	return item, false, domain.Unexpectedf("unknown action %q", t.ID)
}

// activitySize sums the activity database files without deleting them.
func (a *CleanupAdapter) activitySize(root string) int64 {
	return a.fs.SizeMatching(root, a.matchesActivityDB)
}

// clearableValues lists the values of a registry target except the MRU indexes.
func (a *CleanupAdapter) clearableValues(t catalog.CleanupTarget) ([]string, error) {
	names, err := a.store.ValueNames(t.Hive, t.Key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := names[:0:0]
	for _, n := range names {
		if isPreserved(n) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func isPreserved(name string) bool {
	for _, p := range catalog.PreservedMRUValues {
		if name == p {
			return true
		}
	}
	return false
}

func (a *CleanupAdapter) matchesActivityDB(name string) bool {
	for _, g := range a.dbGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Scan lists every target; blocked means nothing is left to clean.
func (a *CleanupAdapter) Scan(ctx context.Context) ([]domain.ConfigItem, error) {
	items, _, err := a.ScanSized(ctx)
	return items, err
}

// ScanSized is Scan that also returns the cleanable bytes it measured,
// so callers needing both walk the targets once.
func (a *CleanupAdapter) ScanSized(ctx context.Context) ([]domain.ConfigItem, int64, error) {
	items := make([]domain.ConfigItem, 0, len(a.targets))
	var total int64
	for _, t := range a.targets {
		ci, clean, err := a.measure(t)
		total += ci.SizeBytes
		item := domain.ConfigItem{
			ID:               t.ID,
			DisplayName:      t.Name,
			Description:      describeTarget(t, ci),
			Category:         t.Category,
			CurrentlyBlocked: clean,
		}
		if err != nil {
			item.ScanError = err.Error()
			item.CurrentlyBlocked = false
			a.logger.Warn("cleanup target unreadable", zap.String("target", t.ID), zap.Error(err))
		}
		items = append(items, item)
	}
	return items, total, nil
}

func describeTarget(t catalog.CleanupTarget, ci domain.CleanupItem) string {
	if ci.SizeBytes > 0 {
		return fmt.Sprintf("%s (%s)", t.Description, humanize.Bytes(uint64(ci.SizeBytes)))
	}
	return t.Description
}

// Apply cleans the given items (Blocked). Allowed cannot be reached.
func (a *CleanupAdapter) Apply(ctx context.Context, items []domain.ConfigItem, desired domain.DesiredState, progress domain.ProgressFunc) domain.BulkResult {
	if desired == domain.Allowed {
		return applyEach(ctx, a.logger, a.Domain(), items, desired, progress, unsupportedItem)
	}
	return a.clean(ctx, items, progress).Result
}

// CleanAll cleans every target.
func (a *CleanupAdapter) CleanAll(ctx context.Context, progress domain.ProgressFunc) domain.CleanupReport {
	return a.clean(ctx, a.items(""), progress)
}

// CleanCategory cleans the targets of one category.
func (a *CleanupAdapter) CleanCategory(ctx context.Context, category string, progress domain.ProgressFunc) domain.CleanupReport {
	return a.clean(ctx, a.items(category), progress)
}

func (a *CleanupAdapter) items(category string) []domain.ConfigItem {
	var items []domain.ConfigItem
	for _, t := range a.targets {
		if category != "" && t.Category != category {
			continue
		}
		items = append(items, domain.ConfigItem{ID: t.ID, DisplayName: t.Name, Description: t.Description, Category: t.Category})
	}
	return items
}

func (a *CleanupAdapter) clean(ctx context.Context, items []domain.ConfigItem, progress domain.ProgressFunc) domain.CleanupReport {
	var cleaned int64
	result := applyEach(ctx, a.logger, a.Domain(), items, domain.Blocked, progress, func(ctx context.Context, item domain.ConfigItem) error {
		t, ok := a.target(item.ID)
		if !ok {
			return unknownItem(item)
		}
		n, err := a.cleanTarget(t)
		cleaned += n
		return err
	})

	report := domain.CleanupReport{BytesCleaned: cleaned, Result: result}
	report.Message = "Cleaned " + humanize.Bytes(uint64(cleaned))
	if !result.OK() {
		report.Message += "; " + result.Summary(domain.MaxSummaryErrors)
	}
	return report
}

func (a *CleanupAdapter) target(id string) (catalog.CleanupTarget, bool) {
	for _, t := range a.targets {
		if t.ID == id {
			return t, true
		}
	}
	return catalog.CleanupTarget{}, false
}

// cleanTarget returns the bytes removed even when part of the target failed.
func (a *CleanupAdapter) cleanTarget(t catalog.CleanupTarget) (int64, error) {
	switch t.Kind {
	case domain.CleanupPath:
		if t.Path == "" {
			return 0, domain.NewOpError("clean", t.ID, domain.ErrUnsupported, "location unknown on this host", nil)
		}
		return a.fs.Clean(t.Path)

	case domain.CleanupRegistry:
		return 0, a.clearRegistry(t)

	case domain.CleanupAction:
		switch t.ID {
		case catalog.ActionAdvertisingID:
			return 0, a.resetAdvertisingID(t)
		case catalog.ActionActivityHistory:
			return a.clearActivityHistory(t)
		}
	}
	return 0, domain.Unexpectedf("unknown target %q", t.ID)
}

// clearRegistry deletes every value except the MRU ordering indexes.
func (a *CleanupAdapter) clearRegistry(t catalog.CleanupTarget) error {
	names, err := a.clearableValues(t)
	if err != nil {
		return err
	}
	var errs *multierror.Error
	for _, n := range names {
		if err := domain.IgnoreNotFound(a.store.DeleteValue(t.Hive, t.Key, n)); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (a *CleanupAdapter) resetAdvertisingID(t catalog.CleanupTarget) error {
	id, err := a.newID()
	if err != nil {
		return domain.Unexpectedf("generate advertising id: %v", err)
	}
	if err := a.store.SetString(t.Hive, t.Key, catalog.AdvertisingIDValue, id); err != nil {
		return err
	}
	if err := a.store.SetDWORD(t.Hive, t.Key, catalog.AdvertisingOnValue, 0); err != nil {
		return err
	}
	a.logger.Info("advertising id reset")
	return nil
}

// clearActivityHistory deletes the activity databases, then turns the
// activity feed policies off. Both steps run; failures are aggregated.
func (a *CleanupAdapter) clearActivityHistory(t catalog.CleanupTarget) (int64, error) {
	var errs *multierror.Error
	var removed int64

	if t.Path != "" {
		n, err := a.fs.RemoveMatching(t.Path, a.matchesActivityDB)
		removed = n
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, name := range catalog.ActivityPolicyValues {
		if err := a.store.SetDWORD(domain.HiveLocalMachine, catalog.SystemPolicyPath, name, 0); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return removed, errs.ErrorOrNil()
}

// Ensure CleanupAdapter implements domain.Adapter.
var _ domain.Adapter = (*CleanupAdapter)(nil)

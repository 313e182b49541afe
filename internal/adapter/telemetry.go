package adapter

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// Item ID prefixes of the three telemetry sub-backends.
const (
	registryItemPrefix = "registry:"
	serviceItemPrefix  = "service:"
	taskItemPrefix     = "task:"
)

// TelemetryAdapter multiplexes registry values, services and scheduled
// tasks into one item list.
type TelemetryAdapter struct {
	store    domain.ConfigStore
	services domain.ServiceController
	runner   domain.CommandRunner
	logger   *zap.Logger

	settings []catalog.RegistrySetting
	svcs     []catalog.Service
	tasks    []catalog.ScheduledTask
}

// NewTelemetryAdapter creates an adapter over the built-in catalog.
func NewTelemetryAdapter(
	store domain.ConfigStore,
	services domain.ServiceController,
	runner domain.CommandRunner,
	logger *zap.Logger,
) *TelemetryAdapter {
	return NewTelemetryAdapterWithCatalog(store, services, runner, logger,
		catalog.TelemetrySettings, catalog.TelemetryServices, catalog.TelemetryTasks)
}

// NewTelemetryAdapterWithCatalog creates an adapter with a custom catalog (for testing).
func NewTelemetryAdapterWithCatalog(
	store domain.ConfigStore,
	services domain.ServiceController,
	runner domain.CommandRunner,
	logger *zap.Logger,
	settings []catalog.RegistrySetting,
	svcs []catalog.Service,
	tasks []catalog.ScheduledTask,
) *TelemetryAdapter {
	return &TelemetryAdapter{
		store:    store,
		services: services,
		runner:   runner,
		logger:   logger,
		settings: settings,
		svcs:     svcs,
		tasks:    tasks,
	}
}

func (a *TelemetryAdapter) Domain() domain.Domain {
	return domain.DomainTelemetry
}

// Items returns the catalog as unscanned items.
func (a *TelemetryAdapter) Items() []domain.ConfigItem {
	items := make([]domain.ConfigItem, 0, len(a.settings)+len(a.svcs)+len(a.tasks))
	for _, s := range a.settings {
		items = append(items, domain.ConfigItem{
			ID:          registryItemPrefix + s.ID(),
			DisplayName: s.Description,
			Description: s.Path + `\` + s.Name,
			Category:    catalog.CategoryRegistry,
		})
	}
	for _, s := range a.svcs {
		items = append(items, domain.ConfigItem{
			ID:          serviceItemPrefix + s.Name,
			DisplayName: s.DisplayName,
			Description: s.Description,
			Category:    catalog.CategoryService,
		})
	}
	for _, t := range a.tasks {
		items = append(items, domain.ConfigItem{
			ID:          taskItemPrefix + string(t),
			DisplayName: t.ShortName(),
			Description: string(t),
			Category:    catalog.CategoryTask,
		})
	}
	return items
}

// Scan reads the current state of every catalog item.
// Unreadable items are listed as not blocked with ScanError set.
func (a *TelemetryAdapter) Scan(ctx context.Context) ([]domain.ConfigItem, error) {
	items := a.Items()
	var errs []error

	for i := range items {
		blocked, err := a.isBlocked(ctx, items[i])
		if err != nil {
			errs = append(errs, err)
			items[i].ScanError = err.Error()
			a.logger.Warn("telemetry item unreadable",
				zap.String("item", items[i].ID),
				zap.Error(err))
			continue
		}
		items[i].CurrentlyBlocked = blocked
	}

	if err := enumerationError(a.Domain(), items, errs); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *TelemetryAdapter) isBlocked(ctx context.Context, item domain.ConfigItem) (bool, error) {
	switch {
	case strings.HasPrefix(item.ID, registryItemPrefix):
		s, ok := a.setting(item.ID)
		if !ok {
			return false, unknownItem(item)
		}
		v, err := a.store.GetDWORD(s.Hive, s.Path, s.Name)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return v == s.BlockedValue, nil

	case strings.HasPrefix(item.ID, serviceItemPrefix):
		st, err := a.services.StartType(strings.TrimPrefix(item.ID, serviceItemPrefix))
		if err != nil {
			return false, err
		}
		return st == domain.StartDisabled, nil

	case strings.HasPrefix(item.ID, taskItemPrefix):
		return a.taskDisabled(ctx, strings.TrimPrefix(item.ID, taskItemPrefix))
	}
	return false, unknownItem(item)
}

func (a *TelemetryAdapter) setting(id string) (catalog.RegistrySetting, bool) {
	for _, s := range a.settings {
		if registryItemPrefix+s.ID() == id {
			return s, true
		}
	}
	return catalog.RegistrySetting{}, false
}

// taskDisabled queries one scheduled task and reads its Status line.
func (a *TelemetryAdapter) taskDisabled(ctx context.Context, path string) (bool, error) {
	res, err := a.runner.Run(ctx, "schtasks", "/Query", "/TN", path, "/FO", "LIST")
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, toolError("schtasks /Query", path, res)
	}
	return parseTaskStatus(res.Stdout) == "Disabled", nil
}

// parseTaskStatus returns the value of the first "Status:" line.
func parseTaskStatus(out string) string {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.TrimSpace(key) == "Status" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Apply writes blocked values, disables services and tasks (Blocked),
// or restores defaults (Allowed).
func (a *TelemetryAdapter) Apply(ctx context.Context, items []domain.ConfigItem, desired domain.DesiredState, progress domain.ProgressFunc) domain.BulkResult {
	return applyEach(ctx, a.logger, a.Domain(), items, desired, progress, func(ctx context.Context, item domain.ConfigItem) error {
		return a.applyItem(ctx, item, desired)
	})
}

// BlockAll applies Blocked to the whole catalog.
func (a *TelemetryAdapter) BlockAll(ctx context.Context, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, a.Items(), domain.Blocked, progress)
}

// RestoreAll applies Allowed to the whole catalog.
func (a *TelemetryAdapter) RestoreAll(ctx context.Context, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, a.Items(), domain.Allowed, progress)
}

func (a *TelemetryAdapter) applyItem(ctx context.Context, item domain.ConfigItem, desired domain.DesiredState) error {
	switch {
	case strings.HasPrefix(item.ID, registryItemPrefix):
		s, ok := a.setting(item.ID)
		if !ok {
			return unknownItem(item)
		}
		value := s.DefaultValue
		if desired == domain.Blocked {
			value = s.BlockedValue
		}
		return a.store.SetDWORD(s.Hive, s.Path, s.Name, value)

	case strings.HasPrefix(item.ID, serviceItemPrefix):
		name := strings.TrimPrefix(item.ID, serviceItemPrefix)
		if desired == domain.Blocked {
			return a.services.Disable(name)
		}
		return a.services.Enable(name)

	case strings.HasPrefix(item.ID, taskItemPrefix):
		path := strings.TrimPrefix(item.ID, taskItemPrefix)
		flag := "/ENABLE"
		if desired == domain.Blocked {
			flag = "/DISABLE"
		}
		res, err := a.runner.Run(ctx, "schtasks", "/Change", "/TN", path, flag)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return toolError("schtasks /Change", path, res)
		}
		return nil
	}
	return unknownItem(item)
}

// Ensure TelemetryAdapter implements domain.Adapter.
var _ domain.Adapter = (*TelemetryAdapter)(nil)

package adapter

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// PermissionsCategory is the item category of consent capabilities.
const PermissionsCategory = "Permissions"

// PermissionsAdapter reads and writes the per-user consent store.
type PermissionsAdapter struct {
	store  domain.ConfigStore
	logger *zap.Logger
	caps   []domain.Capability
}

// NewPermissionsAdapter creates an adapter scanning the main capabilities.
func NewPermissionsAdapter(store domain.ConfigStore, logger *zap.Logger) *PermissionsAdapter {
	return NewPermissionsAdapterWithCapabilities(store, logger, catalog.MainCapabilities)
}

// NewPermissionsAdapterWithCapabilities creates an adapter over a custom capability set.
func NewPermissionsAdapterWithCapabilities(store domain.ConfigStore, logger *zap.Logger, caps []domain.Capability) *PermissionsAdapter {
	return &PermissionsAdapter{store: store, logger: logger, caps: caps}
}

func (a *PermissionsAdapter) Domain() domain.Domain {
	return domain.DomainPermissions
}

// globalEnabled reads the global record. An absent record means allowed.
func (a *PermissionsAdapter) globalEnabled(c domain.Capability) (bool, error) {
	v, err := a.store.GetString(domain.HiveCurrentUser, catalog.ConsentKey(c), catalog.ConsentValueName)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return v != catalog.ConsentDeny, nil
}

// Status returns the global state of c plus its per-app overrides.
func (a *PermissionsAdapter) Status(c domain.Capability) (*domain.PermissionStatus, error) {
	info, _ := catalog.LookupCapability(c)
	enabled, err := a.globalEnabled(c)
	if err != nil {
		return nil, err
	}
	apps, err := a.Apps(c)
	if err != nil {
		return nil, err
	}
	return &domain.PermissionStatus{
		Capability:  c,
		DisplayName: info.DisplayName,
		Description: info.Description,
		Enabled:     enabled,
		Apps:        apps,
	}, nil
}

// Apps lists per-app overrides under c, skipping the NonPackaged group.
func (a *PermissionsAdapter) Apps(c domain.Capability) ([]domain.AppPermission, error) {
	key := catalog.ConsentKey(c)
	families, err := a.store.SubKeys(domain.HiveCurrentUser, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	apps := make([]domain.AppPermission, 0, len(families))
	for _, family := range families {
		if family == catalog.NonPackagedKey {
			continue
		}
		v, err := a.store.GetString(domain.HiveCurrentUser, key+`\`+family, catalog.ConsentValueName)
		if err != nil {
			a.logger.Debug("skipping app without consent value",
				zap.String("capability", string(c)),
				zap.String("app", family),
				zap.Error(err))
			continue
		}
		apps = append(apps, domain.AppPermission{
			AppName:           AppDisplayName(family),
			PackageFamilyName: family,
			Capability:        c,
			Allowed:           v == catalog.ConsentAllow,
		})
	}
	return apps, nil
}

// SetGlobal writes only the global record of c.
func (a *PermissionsAdapter) SetGlobal(c domain.Capability, allowed bool) error {
	return a.store.SetString(domain.HiveCurrentUser, catalog.ConsentKey(c), catalog.ConsentValueName, consentValue(allowed))
}

// SetApp writes one per-app override.
func (a *PermissionsAdapter) SetApp(c domain.Capability, family string, allowed bool) error {
	return a.store.SetString(domain.HiveCurrentUser, catalog.ConsentKey(c)+`\`+family, catalog.ConsentValueName, consentValue(allowed))
}

// DisableAll denies every scanned capability globally.
func (a *PermissionsAdapter) DisableAll(ctx context.Context, progress domain.ProgressFunc) domain.BulkResult {
	return a.Apply(ctx, a.items(), domain.Blocked, progress)
}

func consentValue(allowed bool) string {
	if allowed {
		return catalog.ConsentAllow
	}
	return catalog.ConsentDeny
}

func (a *PermissionsAdapter) items() []domain.ConfigItem {
	items := make([]domain.ConfigItem, 0, len(a.caps))
	for _, c := range a.caps {
		info, _ := catalog.LookupCapability(c)
		items = append(items, domain.ConfigItem{
			ID:          string(c),
			DisplayName: info.DisplayName,
			Description: info.Description,
			Category:    PermissionsCategory,
		})
	}
	return items
}

// Scan reports each capability as blocked iff its global record is Deny.
func (a *PermissionsAdapter) Scan(ctx context.Context) ([]domain.ConfigItem, error) {
	items := a.items()
	var errs []error
	for i := range items {
		enabled, err := a.globalEnabled(domain.Capability(items[i].ID))
		if err != nil {
			errs = append(errs, err)
			items[i].ScanError = err.Error()
			continue
		}
		items[i].CurrentlyBlocked = !enabled
	}
	if err := enumerationError(a.Domain(), items, errs); err != nil {
		return nil, err
	}
	return items, nil
}

// Apply writes Deny (Blocked) or Allow (Allowed) to each global record.
func (a *PermissionsAdapter) Apply(ctx context.Context, items []domain.ConfigItem, desired domain.DesiredState, progress domain.ProgressFunc) domain.BulkResult {
	return applyEach(ctx, a.logger, a.Domain(), items, desired, progress, func(ctx context.Context, item domain.ConfigItem) error {
		return a.SetGlobal(domain.Capability(item.ID), desired == domain.Allowed)
	})
}

// AppDisplayName derives a readable name from a package family name,
// e.g. "Microsoft.WindowsCamera_8wekyb3d8bbwe" becomes "Windows Camera".
func AppDisplayName(family string) string {
	name, _, _ := strings.Cut(family, "_")
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}

	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ensure PermissionsAdapter implements domain.Adapter.
var _ domain.Adapter = (*PermissionsAdapter)(nil)

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// Profile data keys.
const (
	ProfileKeyAutostart = "autostart"
	ProfileKeyBlocked   = "blocked"
)

// Autostart toggles launching the app at logon.
type Autostart interface {
	IsEnabled() (bool, error)
	Enable(execPath string) error
	Disable() error
}

// ProfileManager captures the current settings into a profile document and
// reapplies one later.
type ProfileManager struct {
	adapters  []domain.Adapter
	autostart Autostart
	execPath  string
	store     domain.ProfileStore
	now       func() time.Time
	logger    *zap.Logger
}

// NewProfileManager creates a profile manager. autostart and store may be nil.
func NewProfileManager(
	adapters []domain.Adapter,
	autostart Autostart,
	execPath string,
	store domain.ProfileStore,
	logger *zap.Logger,
) *ProfileManager {
	return &ProfileManager{
		adapters:  adapters,
		autostart: autostart,
		execPath:  execPath,
		store:     store,
		now:       time.Now,
		logger:    logger,
	}
}

// Capture scans every adapter and records which items are blocked.
func (m *ProfileManager) Capture(ctx context.Context) (*domain.Profile, error) {
	blocked := make(map[string]any, len(m.adapters))
	var errs *multierror.Error

	for _, a := range m.adapters {
		items, err := a.Scan(ctx)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", a.Domain(), err))
			continue
		}
		ids := []string{}
		for _, item := range items {
			if item.CurrentlyBlocked {
				ids = append(ids, item.ID)
			}
		}
		blocked[string(a.Domain())] = ids
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	data := map[string]any{ProfileKeyBlocked: blocked}
	if m.autostart != nil {
		enabled, err := m.autostart.IsEnabled()
		if err != nil {
			return nil, fmt.Errorf("read autostart: %w", err)
		}
		data[ProfileKeyAutostart] = enabled
	}

	return &domain.Profile{
		Version:   catalog.ProfileVersion,
		App:       catalog.AppName,
		CreatedAt: m.now(),
		Data:      data,
	}, nil
}

// EncodeProfile renders p as indented JSON.
func EncodeProfile(p *domain.Profile) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// DecodeProfile parses a profile document and checks it belongs to this app.
func DecodeProfile(data []byte) (*domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.NewOpError("import profile", "", domain.ErrMalformedOutput, "invalid JSON", err)
	}
	if p.App != catalog.AppName {
		return nil, domain.NewOpError("import profile", "", domain.ErrMalformedOutput,
			fmt.Sprintf("not a %s profile (app %q)", catalog.AppName, p.App), nil)
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	return &p, nil
}

// BlockedIDs returns the item IDs a profile marks blocked for one domain.
func BlockedIDs(p *domain.Profile, d domain.Domain) ([]string, bool) {
	byDomain, ok := p.Data[ProfileKeyBlocked].(map[string]any)
	if !ok {
		return nil, false
	}
	switch raw := byDomain[string(d)].(type) {
	case []string:
		return raw, true
	case []any:
		ids := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids, true
	}
	return nil, false
}

// Apply blocks every item the profile lists as blocked. Items the profile
// does not list are left as they are. Autostart is set when present.
func (m *ProfileManager) Apply(ctx context.Context, p *domain.Profile, progress domain.ProgressFunc) (domain.BulkResult, error) {
	var result domain.BulkResult
	var errs *multierror.Error

	if enabled, ok := p.Data[ProfileKeyAutostart].(bool); ok && m.autostart != nil {
		var err error
		if enabled {
			err = m.autostart.Enable(m.execPath)
		} else {
			err = m.autostart.Disable()
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("autostart: %w", err))
		}
	}

	for _, a := range m.adapters {
		ids, ok := BlockedIDs(p, a.Domain())
		if !ok || len(ids) == 0 {
			continue
		}
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}

		items, err := a.Scan(ctx)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", a.Domain(), err))
			continue
		}
		var pending []domain.ConfigItem
		for _, item := range items {
			if want[item.ID] && !item.CurrentlyBlocked {
				pending = append(pending, item)
			}
			delete(want, item.ID)
		}
		for id := range want {
			m.logger.Debug("profile item not present on this host",
				zap.String("domain", string(a.Domain())),
				zap.String("item", id))
		}
		if len(pending) == 0 {
			continue
		}

		r := a.Apply(ctx, pending, domain.Blocked, progress)
		result.Outcomes = append(result.Outcomes, r.Outcomes...)
		result.SuccessCount += r.SuccessCount
		result.FailureCount += r.FailureCount
	}

	m.logger.Info("profile applied",
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount))
	return result, errs.ErrorOrNil()
}

// Save captures the current settings under name.
func (m *ProfileManager) Save(ctx context.Context, name string) (*domain.Profile, error) {
	if m.store == nil {
		return nil, domain.NewOpError("save profile", name, domain.ErrUnsupported, "no profile store", nil)
	}
	p, err := m.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(name, *p); err != nil {
		return nil, err
	}
	m.logger.Info("profile saved", zap.String("name", name))
	return p, nil
}

// Load returns a saved profile.
func (m *ProfileManager) Load(name string) (*domain.Profile, error) {
	if m.store == nil {
		return nil, domain.NewOpError("load profile", name, domain.ErrUnsupported, "no profile store", nil)
	}
	return m.store.Load(name)
}

// List returns the saved profiles by name.
func (m *ProfileManager) List() ([]domain.SavedProfile, error) {
	if m.store == nil {
		return nil, nil
	}
	profiles, err := m.store.List()
	if err != nil {
		return nil, err
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Delete removes a saved profile.
func (m *ProfileManager) Delete(name string) error {
	if m.store == nil {
		return domain.NewOpError("delete profile", name, domain.ErrUnsupported, "no profile store", nil)
	}
	return m.store.Delete(name)
}

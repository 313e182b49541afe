package infra

import (
	"errors"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// AutostartManager registers the executable under the current user's Run key.
type AutostartManager struct {
	store  domain.ConfigStore
	logger *zap.Logger
}

// NewAutostartManager creates a manager over store.
func NewAutostartManager(store domain.ConfigStore, logger *zap.Logger) *AutostartManager {
	return &AutostartManager{store: store, logger: logger}
}

// command is the Run value for execPath. Quoted so paths with spaces survive.
func command(execPath string) string {
	return `"` + execPath + `"`
}

// IsEnabled reports whether the Run value exists.
func (m *AutostartManager) IsEnabled() (bool, error) {
	_, err := m.store.GetString(domain.HiveCurrentUser, catalog.RunKeyPath, catalog.AutostartValue)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NeedsUpdate reports whether the Run value exists but points elsewhere.
func (m *AutostartManager) NeedsUpdate(execPath string) bool {
	current, err := m.store.GetString(domain.HiveCurrentUser, catalog.RunKeyPath, catalog.AutostartValue)
	if err != nil {
		return false // Missing needs Enable, not update
	}
	return current != command(execPath)
}

// Enable writes the Run value for execPath.
func (m *AutostartManager) Enable(execPath string) error {
	if err := m.store.SetString(domain.HiveCurrentUser, catalog.RunKeyPath, catalog.AutostartValue, command(execPath)); err != nil {
		return err
	}
	m.logger.Info("autostart enabled", zap.String("path", execPath))
	return nil
}

// Disable removes the Run value. An absent value is success.
func (m *AutostartManager) Disable() error {
	err := m.store.DeleteValue(domain.HiveCurrentUser, catalog.RunKeyPath, catalog.AutostartValue)
	if err := domain.IgnoreNotFound(err); err != nil {
		return err
	}
	m.logger.Info("autostart disabled")
	return nil
}

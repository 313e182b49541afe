package adapter

import (
	"errors"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// UpdatePolicy manages the Windows Update group policy values.
type UpdatePolicy struct {
	store  domain.ConfigStore
	logger *zap.Logger
}

// NewUpdatePolicy creates a manager over store.
func NewUpdatePolicy(store domain.ConfigStore, logger *zap.Logger) *UpdatePolicy {
	return &UpdatePolicy{store: store, logger: logger}
}

// Status reads the policy. A missing key or value is reported as unset.
func (u *UpdatePolicy) Status() (domain.UpdatePolicyStatus, error) {
	var st domain.UpdatePolicyStatus

	_, err := u.store.ValueNames(domain.HiveLocalMachine, catalog.UpdatePolicyPath)
	if errors.Is(err, domain.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Configured = true

	v, err := u.store.GetDWORD(domain.HiveLocalMachine, catalog.UpdatePolicyPath, catalog.NoAutoUpdateValue)
	if err = domain.IgnoreNotFound(err); err != nil {
		return st, err
	}
	st.NoAutoUpdate = v != 0

	opt, err := u.store.GetDWORD(domain.HiveLocalMachine, catalog.UpdatePolicyPath, catalog.AUOptionsValue)
	if err = domain.IgnoreNotFound(err); err != nil {
		return st, err
	}
	st.AUOptions = opt
	return st, nil
}

// DisableAutoUpdates turns automatic updates off entirely.
func (u *UpdatePolicy) DisableAutoUpdates() error {
	if err := u.set(catalog.NoAutoUpdateValue, 1); err != nil {
		return err
	}
	u.logger.Info("automatic updates disabled")
	return nil
}

// SetNotifyOnly keeps updates on but asks before downloading.
func (u *UpdatePolicy) SetNotifyOnly() error {
	if err := u.set(catalog.NoAutoUpdateValue, 0); err != nil {
		return err
	}
	if err := u.set(catalog.AUOptionsValue, catalog.AUNotifyBeforeDownload); err != nil {
		return err
	}
	u.logger.Info("updates set to notify only")
	return nil
}

// RestoreDefaults deletes both policy values. Values already gone are fine.
func (u *UpdatePolicy) RestoreDefaults() error {
	var errs *multierror.Error
	for _, name := range []string{catalog.NoAutoUpdateValue, catalog.AUOptionsValue} {
		err := u.store.DeleteValue(domain.HiveLocalMachine, catalog.UpdatePolicyPath, name)
		if err = domain.IgnoreNotFound(err); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	u.logger.Info("update policy restored to defaults")
	return nil
}

func (u *UpdatePolicy) set(name string, value uint32) error {
	return u.store.SetDWORD(domain.HiveLocalMachine, catalog.UpdatePolicyPath, name, value)
}

// DescribeUpdatePolicy renders st for display.
func DescribeUpdatePolicy(st domain.UpdatePolicyStatus) string {
	switch {
	case !st.Configured:
		return "Windows default (no policy)"
	case st.NoAutoUpdate:
		return "Automatic updates disabled"
	case st.AUOptions == 0:
		return "Windows default"
	}
	if name, ok := catalog.AUOptionNames[st.AUOptions]; ok {
		return name
	}
	return "Unknown option"
}

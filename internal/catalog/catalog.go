// Package catalog holds the static reference data each adapter targets:
// registry values, services, scheduled jobs, firewall endpoints,
// consent-store capabilities, cleanup targets and package keyword lists.
//
// Every string here is matched bit-exactly against the OS, so these are
// constants, not configuration.
package catalog

import "github.com/eliteGoblin/privguard/internal/domain"

// AppName is the application identifier written into profiles, the
// autostart entry, firewall rule names and the hosts-file markers.
const AppName = "PrivacyDashboard"

// RegistrySetting is a DWORD value with distinct blocked and default values.
type RegistrySetting struct {
	Hive         domain.Hive
	Path         string
	Name         string
	BlockedValue uint32
	DefaultValue uint32
	Description  string
}

// ID is the stable item identifier for the setting.
func (s RegistrySetting) ID() string {
	return s.Hive.String() + `\` + s.Path + `\` + s.Name
}

// Service is a background service tied to data collection.
type Service struct {
	Name        string
	DisplayName string
	Description string
}

// ScheduledTask is a scheduled job path such as `\Microsoft\Windows\Autochk\Proxy`.
type ScheduledTask string

// ShortName returns the last path segment.
func (t ScheduledTask) ShortName() string {
	s := string(t)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\\' {
			return s[i+1:]
		}
	}
	return s
}

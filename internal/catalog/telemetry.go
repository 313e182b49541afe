package catalog

import "github.com/eliteGoblin/privguard/internal/domain"

// Item categories reported by the telemetry adapter.
const (
	CategoryRegistry = "Registry"
	CategoryService  = "Service"
	CategoryTask     = "Task"
)

// TelemetrySettings are the data-collection policy values.
// AllowTelemetry is not boolean: 0 is "security only", 3 is "full".
var TelemetrySettings = []RegistrySetting{
	{
		Hive:         domain.HiveLocalMachine,
		Path:         `SOFTWARE\Policies\Microsoft\Windows\DataCollection`,
		Name:         "AllowTelemetry",
		BlockedValue: 0,
		DefaultValue: 3,
		Description:  "Windows Telemetry Level",
	},
	{
		Hive:         domain.HiveLocalMachine,
		Path:         `SOFTWARE\Microsoft\Windows\CurrentVersion\Policies\DataCollection`,
		Name:         "AllowTelemetry",
		BlockedValue: 0,
		DefaultValue: 3,
		Description:  "Data Collection Policy",
	},
	{
		Hive:         domain.HiveLocalMachine,
		Path:         `SOFTWARE\Policies\Microsoft\Windows\DataCollection`,
		Name:         "DoNotShowFeedbackNotifications",
		BlockedValue: 1,
		DefaultValue: 0,
		Description:  "Feedback Notifications",
	},
	{
		Hive:         domain.HiveLocalMachine,
		Path:         `SOFTWARE\Policies\Microsoft\Windows\CloudContent`,
		Name:         "DisableTailoredExperiencesWithDiagnosticData",
		BlockedValue: 1,
		DefaultValue: 0,
		Description:  "Tailored Experiences",
	},
	{
		Hive:         domain.HiveLocalMachine,
		Path:         `SOFTWARE\Microsoft\Windows\CurrentVersion\AdvertisingInfo`,
		Name:         "Enabled",
		BlockedValue: 0,
		DefaultValue: 1,
		Description:  "Advertising ID",
	},
}

// TelemetryServices are disabled+stopped when blocked, automatic+started when allowed.
var TelemetryServices = []Service{
	{
		Name:        "DiagTrack",
		DisplayName: "Connected User Experiences and Telemetry",
		Description: "Main telemetry service",
	},
	{
		Name:        "dmwappushservice",
		DisplayName: "Device Management WAP Push Service",
		Description: "Push message routing service",
	},
	{
		Name:        "diagnosticshub.standardcollector.service",
		DisplayName: "Diagnostics Hub Standard Collector",
		Description: "Diagnostics data collection",
	},
}

// TelemetryTasks are scheduled jobs toggled disabled/enabled.
var TelemetryTasks = []ScheduledTask{
	`\Microsoft\Windows\Application Experience\Microsoft Compatibility Appraiser`,
	`\Microsoft\Windows\Application Experience\ProgramDataUpdater`,
	`\Microsoft\Windows\Autochk\Proxy`,
	`\Microsoft\Windows\Customer Experience Improvement Program\Consolidator`,
	`\Microsoft\Windows\Customer Experience Improvement Program\UsbCeip`,
	`\Microsoft\Windows\DiskDiagnostic\Microsoft-Windows-DiskDiagnosticDataCollector`,
	`\Microsoft\Windows\Feedback\Siuf\DmClient`,
	`\Microsoft\Windows\Feedback\Siuf\DmClientOnScenarioDownload`,
}

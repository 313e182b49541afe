package catalog

// Autostart entry location (HKCU) and persisted document versions.
const (
	RunKeyPath     = `Software\Microsoft\Windows\CurrentVersion\Run`
	AutostartValue = AppName
	ProfileVersion = "1.0"
	HistoryVersion = "1.0"
)

package infra

import (
	"os"
	"path/filepath"

	"github.com/eliteGoblin/privguard/internal/catalog"
)

// AppPaths holds the per-user locations the application writes to.
type AppPaths struct {
	DataDir     string // %APPDATA%\PrivacyDashboard
	LogPath     string
	ConfigPath  string
	HistoryPath string
	HostsFile   string
}

// DetectAppPaths resolves paths for the current user.
// dataDir overrides the default data directory when non-empty.
func DetectAppPaths(dataDir string) *AppPaths {
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	return &AppPaths{
		DataDir:     dataDir,
		LogPath:     filepath.Join(dataDir, "privguard.log"),
		ConfigPath:  filepath.Join(dataDir, "config.yaml"),
		HistoryPath: filepath.Join(dataDir, historyFileName),
		HostsFile:   DefaultHostsFile(),
	}
}

// DefaultDataDir returns %APPDATA%\PrivacyDashboard, falling back to the
// user config dir and then the home directory on other hosts.
func DefaultDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, catalog.AppName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, catalog.AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+catalog.AppName)
}

// DefaultHostsFile returns the system hosts file path.
func DefaultHostsFile() string {
	if winDir := os.Getenv("SystemRoot"); winDir != "" {
		return filepath.Join(winDir, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// ExecutablePath returns the absolute path of the running binary.
func ExecutablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Abs(exe)
}

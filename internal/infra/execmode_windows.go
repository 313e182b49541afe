//go:build windows

package infra

import (
	"os"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/privguard/internal/catalog"
)

// IsElevated reports whether the process token is elevated.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// CleanupEnv resolves the cleanup target roots from the user environment.
func CleanupEnv() catalog.Env {
	winDir := os.Getenv("SystemRoot")
	if winDir == "" {
		winDir = `C:\Windows`
	}
	return catalog.Env{
		WinDir:       winDir,
		AppData:      os.Getenv("APPDATA"),
		LocalAppData: os.Getenv("LOCALAPPDATA"),
		Temp:         os.Getenv("TEMP"),
	}
}

//go:build !windows

package infra

import (
	"os"

	"github.com/eliteGoblin/privguard/internal/catalog"
)

// IsElevated reports whether the process runs as root.
func IsElevated() bool {
	return os.Geteuid() == 0
}

// CleanupEnv is empty on other hosts, which disables every path target.
func CleanupEnv() catalog.Env {
	return catalog.Env{}
}

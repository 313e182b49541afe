// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"

	"github.com/eliteGoblin/privguard/internal/catalog"
)

// FakeUserTree creates a directory structure mimicking the cleanable
// locations of a Windows user profile under one root.
type FakeUserTree struct {
	Root string
}

// NewFakeUserTree creates a new fake tree generator rooted at root.
func NewFakeUserTree(root string) *FakeUserTree {
	return &FakeUserTree{Root: root}
}

// Env returns the cleanup environment pointing into the tree.
func (f *FakeUserTree) Env() catalog.Env {
	return catalog.Env{
		WinDir:       filepath.Join(f.Root, "Windows"),
		AppData:      filepath.Join(f.Root, "AppData", "Roaming"),
		LocalAppData: filepath.Join(f.Root, "AppData", "Local"),
		Temp:         filepath.Join(f.Root, "AppData", "Local", "Temp"),
	}
}

// file is one sized file of the tree, relative to Root.
type file struct {
	path string
	size int
}

func (f *FakeUserTree) files() []file {
	return []file{
		// Launch traces
		{"Windows/Prefetch/NOTEPAD.EXE-D8414F97.pf", 4096},
		{"Windows/Temp/setup.log", 1024},

		// Recent items
		{"AppData/Roaming/Microsoft/Windows/Recent/report.docx.lnk", 512},

		// User temp
		{"AppData/Local/Temp/a.tmp", 2048},
		{"AppData/Local/Temp/nested/b.tmp", 2048},

		// Caches
		{"AppData/Local/Microsoft/Windows/Explorer/thumbcache_256.db", 8192},
		{"AppData/Local/IconCache.db", 1024},

		// Activity feed
		{"AppData/Local/ConnectedDevicesPlatform/L.user/ActivitiesCache.db", 4096},
		{"AppData/Local/ConnectedDevicesPlatform/L.user/ActivitiesCache.db-wal", 128},
		{"AppData/Local/ConnectedDevicesPlatform/CDPGlobalSettings.cdp", 64},
	}
}

// Create writes every file of the tree.
func (f *FakeUserTree) Create() error {
	for _, fl := range f.files() {
		p := filepath.Join(f.Root, filepath.FromSlash(fl.path))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, make([]byte, fl.size), 0644); err != nil {
			return err
		}
	}
	return nil
}

// TotalBytes is the size of every file Create writes.
func (f *FakeUserTree) TotalBytes() int64 {
	var n int64
	for _, fl := range f.files() {
		n += int64(fl.size)
	}
	return n
}

// PreservedBytes is the size of files cleanup must leave in place.
func (f *FakeUserTree) PreservedBytes() int64 {
	return 64 // CDPGlobalSettings.cdp
}

// Exists checks if a path relative to the root exists.
func (f *FakeUserTree) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.Root, filepath.FromSlash(rel)))
	return err == nil
}

// Cleanup removes the whole tree.
func (f *FakeUserTree) Cleanup() error {
	return os.RemoveAll(f.Root)
}

package infra

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// FileSystemManagerImpl implements domain.FileSystemManager.
type FileSystemManagerImpl struct {
	logger *zap.Logger
}

// NewFileSystemManager creates a new filesystem manager.
func NewFileSystemManager(logger *zap.Logger) domain.FileSystemManager {
	return &FileSystemManagerImpl{logger: logger}
}

// Exists checks if a path exists.
func (fm *FileSystemManagerImpl) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size walks path and sums regular file sizes.
// Entries that cannot be read are skipped.
func (fm *FileSystemManagerImpl) Size(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable subtree, keep walking siblings
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// Clean removes a file, or every entry inside a directory while keeping
// the directory itself. Locked entries are skipped; the first failure is
// returned together with the bytes that were removed.
func (fm *FileSystemManagerImpl) Clean(path string) (int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fsError("stat", path, err)
	}

	if !info.IsDir() {
		size := info.Size()
		if err := os.Remove(path); err != nil {
			return 0, fsError("remove", path, err)
		}
		return size, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, fsError("read dir", path, err)
	}

	var cleaned int64
	var firstErr error
	for _, e := range entries {
		child := filepath.Join(path, e.Name())
		size := fm.Size(child)
		if err := os.RemoveAll(child); err != nil {
			fm.logger.Debug("skipping entry", zap.String("path", child), zap.Error(err))
			if firstErr == nil {
				firstErr = fsError("remove", child, err)
			}
			// RemoveAll may have removed part of the subtree
			size -= fm.Size(child)
		}
		cleaned += size
	}
	return cleaned, firstErr
}

// SizeMatching sums regular files under root whose base name matches.
func (fm *FileSystemManagerImpl) SizeMatching(root string, match func(name string) bool) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && match(d.Name()) {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// RemoveMatching deletes regular files under root whose base name matches.
func (fm *FileSystemManagerImpl) RemoveMatching(root string, match func(name string) bool) (int64, error) {
	var removed int64
	var firstErr error
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return fs.SkipAll
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !match(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if err := os.Remove(p); err != nil {
			if firstErr == nil {
				firstErr = fsError("remove", p, err)
			}
			return nil
		}
		removed += info.Size()
		return nil
	})
	if err != nil && firstErr == nil {
		firstErr = fsError("walk", root, err)
	}
	return removed, firstErr
}

// ReadFile returns the file content.
func (fm *FileSystemManagerImpl) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fsError("read", path, err)
	}
	return data, nil
}

// WriteFileAtomic writes to a temp file in the same directory and renames it over path.
func (fm *FileSystemManagerImpl) WriteFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	// Write to temp file first (unique per process to avoid race)
	tmpPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return fsError("write", tmpPath, err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return fsError("rename", path, err)
	}
	return nil
}

func fsError(op, path string, err error) error {
	kind := domain.ErrUnexpected
	switch {
	case os.IsNotExist(err):
		kind = domain.ErrNotFound
	case os.IsPermission(err):
		kind = domain.ErrPermissionDenied
	}
	return domain.NewOpError(op, path, kind, "", err)
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)

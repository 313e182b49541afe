//go:build windows

package infra

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// RegistryConfigStore implements domain.ConfigStore over the Windows registry.
type RegistryConfigStore struct{}

// NewConfigStore returns the registry-backed store.
func NewConfigStore() domain.ConfigStore {
	return &RegistryConfigStore{}
}

func rootKey(h domain.Hive) registry.Key {
	if h == domain.HiveCurrentUser {
		return registry.CURRENT_USER
	}
	return registry.LOCAL_MACHINE
}

// classifyWinErr maps Win32 errors onto the domain taxonomy.
func classifyWinErr(op, item string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registry.ErrNotExist),
		errors.Is(err, windows.ERROR_FILE_NOT_FOUND),
		errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return domain.NewOpError(op, item, domain.ErrNotFound, "", err)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return domain.NewOpError(op, item, domain.ErrPermissionDenied, "", err)
	default:
		return domain.NewOpError(op, item, domain.ErrUnexpected, "", err)
	}
}

func (s *RegistryConfigStore) open(h domain.Hive, path string, access uint32) (registry.Key, error) {
	k, err := registry.OpenKey(rootKey(h), path, viewAccess(h, access))
	if err != nil {
		return 0, classifyWinErr("open key", fmt.Sprintf(`%s\%s`, h, path), err)
	}
	return k, nil
}

func (s *RegistryConfigStore) create(h domain.Hive, path string) (registry.Key, error) {
	k, _, err := registry.CreateKey(rootKey(h), path, viewAccess(h, registry.SET_VALUE|registry.QUERY_VALUE))
	if err != nil {
		return 0, classifyWinErr("create key", fmt.Sprintf(`%s\%s`, h, path), err)
	}
	return k, nil
}

// GetDWORD reads a 32-bit integer value.
func (s *RegistryConfigStore) GetDWORD(h domain.Hive, path, name string) (uint32, error) {
	k, err := s.open(h, path, registry.QUERY_VALUE)
	if err != nil {
		return 0, err
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(name)
	if err != nil {
		return 0, classifyWinErr("read value", name, err)
	}
	return uint32(v), nil
}

// SetDWORD creates the key if needed and writes a 32-bit integer value.
func (s *RegistryConfigStore) SetDWORD(h domain.Hive, path, name string, value uint32) error {
	k, err := s.create(h, path)
	if err != nil {
		return err
	}
	defer k.Close()
	return classifyWinErr("write value", name, k.SetDWordValue(name, value))
}

// GetString reads a string value.
func (s *RegistryConfigStore) GetString(h domain.Hive, path, name string) (string, error) {
	k, err := s.open(h, path, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if err != nil {
		return "", classifyWinErr("read value", name, err)
	}
	return v, nil
}

// SetString creates the key if needed and writes a string value.
func (s *RegistryConfigStore) SetString(h domain.Hive, path, name, value string) error {
	k, err := s.create(h, path)
	if err != nil {
		return err
	}
	defer k.Close()
	return classifyWinErr("write value", name, k.SetStringValue(name, value))
}

// SubKeys lists the immediate subkey names of path.
func (s *RegistryConfigStore) SubKeys(h domain.Hive, path string) ([]string, error) {
	k, err := s.open(h, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, classifyWinErr("enumerate subkeys", path, err)
	}
	return names, nil
}

// ValueNames lists the value names stored directly under path.
func (s *RegistryConfigStore) ValueNames(h domain.Hive, path string) ([]string, error) {
	k, err := s.open(h, path, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, classifyWinErr("enumerate values", path, err)
	}
	return names, nil
}

// DeleteValue removes one value.
func (s *RegistryConfigStore) DeleteValue(h domain.Hive, path, name string) error {
	k, err := s.open(h, path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return classifyWinErr("delete value", name, k.DeleteValue(name))
}

// Ensure RegistryConfigStore implements domain.ConfigStore.
var _ domain.ConfigStore = (*RegistryConfigStore)(nil)

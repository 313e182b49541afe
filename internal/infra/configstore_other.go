//go:build !windows

package infra

import "github.com/eliteGoblin/privguard/internal/domain"

// UnsupportedConfigStore is used on hosts without a registry.
// Every call fails with domain.ErrUnsupported.
type UnsupportedConfigStore struct{}

// NewConfigStore returns a store that reports the platform as unsupported.
func NewConfigStore() domain.ConfigStore {
	return &UnsupportedConfigStore{}
}

func unsupported(op string) error {
	return domain.NewOpError(op, "", domain.ErrUnsupported, "registry is only available on Windows", nil)
}

func (UnsupportedConfigStore) GetDWORD(domain.Hive, string, string) (uint32, error) {
	return 0, unsupported("read value")
}

func (UnsupportedConfigStore) SetDWORD(domain.Hive, string, string, uint32) error {
	return unsupported("write value")
}

func (UnsupportedConfigStore) GetString(domain.Hive, string, string) (string, error) {
	return "", unsupported("read value")
}

func (UnsupportedConfigStore) SetString(domain.Hive, string, string, string) error {
	return unsupported("write value")
}

func (UnsupportedConfigStore) SubKeys(domain.Hive, string) ([]string, error) {
	return nil, unsupported("enumerate subkeys")
}

func (UnsupportedConfigStore) ValueNames(domain.Hive, string) ([]string, error) {
	return nil, unsupported("enumerate values")
}

func (UnsupportedConfigStore) DeleteValue(domain.Hive, string, string) error {
	return unsupported("delete value")
}

var _ domain.ConfigStore = UnsupportedConfigStore{}

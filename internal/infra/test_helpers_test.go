package infra

import (
	"sync"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// memConfigStore is an in-memory domain.ConfigStore.
type memConfigStore struct {
	mu     sync.Mutex
	values map[string]any
}

func newMemConfigStore() *memConfigStore {
	return &memConfigStore{values: make(map[string]any)}
}

func memKey(h domain.Hive, path, name string) string {
	return h.String() + `\` + path + `\` + name
}

func (m *memConfigStore) get(h domain.Hive, path, name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[memKey(h, path, name)]
	if !ok {
		return nil, domain.NewOpError("read value", name, domain.ErrNotFound, "", nil)
	}
	return v, nil
}

func (m *memConfigStore) set(h domain.Hive, path, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memKey(h, path, name)] = v
	return nil
}

func (m *memConfigStore) GetDWORD(h domain.Hive, path, name string) (uint32, error) {
	v, err := m.get(h, path, name)
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

func (m *memConfigStore) SetDWORD(h domain.Hive, path, name string, value uint32) error {
	return m.set(h, path, name, value)
}

func (m *memConfigStore) GetString(h domain.Hive, path, name string) (string, error) {
	v, err := m.get(h, path, name)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *memConfigStore) SetString(h domain.Hive, path, name, value string) error {
	return m.set(h, path, name, value)
}

func (m *memConfigStore) SubKeys(h domain.Hive, path string) ([]string, error) {
	return nil, nil
}

func (m *memConfigStore) ValueNames(h domain.Hive, path string) ([]string, error) {
	return nil, nil
}

func (m *memConfigStore) DeleteValue(h domain.Hive, path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(h, path, name)
	if _, ok := m.values[k]; !ok {
		return domain.NewOpError("delete value", name, domain.ErrNotFound, "", nil)
	}
	delete(m.values, k)
	return nil
}

var _ domain.ConfigStore = (*memConfigStore)(nil)

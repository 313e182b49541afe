package fixtures

import (
	"sort"
	"strings"
	"sync"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// MemConfigStore is an in-memory registry.
type MemConfigStore struct {
	mu   sync.Mutex
	keys map[string]map[string]any
}

// NewMemConfigStore creates an empty store.
func NewMemConfigStore() *MemConfigStore {
	return &MemConfigStore{keys: make(map[string]map[string]any)}
}

func keyOf(h domain.Hive, path string) string {
	return h.String() + `\` + path
}

func (m *MemConfigStore) get(h domain.Hive, path, name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.keys[keyOf(h, path)]
	if !ok {
		return nil, domain.NewOpError("open key", path, domain.ErrNotFound, "", nil)
	}
	v, ok := vals[name]
	if !ok {
		return nil, domain.NewOpError("read value", name, domain.ErrNotFound, "", nil)
	}
	return v, nil
}

func (m *MemConfigStore) set(h domain.Hive, path, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(h, path)
	if m.keys[k] == nil {
		m.keys[k] = make(map[string]any)
	}
	m.keys[k][name] = v
	return nil
}

func (m *MemConfigStore) GetDWORD(h domain.Hive, path, name string) (uint32, error) {
	v, err := m.get(h, path, name)
	if err != nil {
		return 0, err
	}
	d, ok := v.(uint32)
	if !ok {
		return 0, domain.NewOpError("read value", name, domain.ErrMalformedOutput, "not a DWORD", nil)
	}
	return d, nil
}

func (m *MemConfigStore) SetDWORD(h domain.Hive, path, name string, value uint32) error {
	return m.set(h, path, name, value)
}

func (m *MemConfigStore) GetString(h domain.Hive, path, name string) (string, error) {
	v, err := m.get(h, path, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewOpError("read value", name, domain.ErrMalformedOutput, "not a string", nil)
	}
	return s, nil
}

func (m *MemConfigStore) SetString(h domain.Hive, path, name, value string) error {
	return m.set(h, path, name, value)
}

func (m *MemConfigStore) SubKeys(h domain.Hive, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := keyOf(h, path) + `\`
	seen := make(map[string]bool)
	for k := range m.keys {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			child, _, _ := strings.Cut(rest, `\`)
			seen[child] = true
		}
	}
	if len(seen) == 0 {
		if _, ok := m.keys[keyOf(h, path)]; !ok {
			return nil, domain.NewOpError("open key", path, domain.ErrNotFound, "", nil)
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemConfigStore) ValueNames(h domain.Hive, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.keys[keyOf(h, path)]
	if !ok {
		return nil, domain.NewOpError("open key", path, domain.ErrNotFound, "", nil)
	}
	out := make([]string, 0, len(vals))
	for n := range vals {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemConfigStore) DeleteValue(h domain.Hive, path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(h, path)
	if _, ok := m.keys[k][name]; !ok {
		return domain.NewOpError("delete value", name, domain.ErrNotFound, "", nil)
	}
	delete(m.keys[k], name)
	return nil
}

var _ domain.ConfigStore = (*MemConfigStore)(nil)

package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// memHistoryStore is an in-memory domain.HistoryStore.
type memHistoryStore struct {
	mu      sync.Mutex
	doc     *domain.ScoreHistoryDocument
	loadErr error
	saveErr error
	saves   int
}

func (m *memHistoryStore) Load() (*domain.ScoreHistoryDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return &domain.ScoreHistoryDocument{Version: "1.0"}, nil
	}
	cp := *m.doc
	cp.Entries = copyEntries(m.doc.Entries)
	return &cp, nil
}

func (m *memHistoryStore) Save(doc *domain.ScoreHistoryDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *doc
	cp.Entries = copyEntries(doc.Entries)
	m.doc = &cp
	m.saves++
	return nil
}

// copyEntries keeps an empty list non-nil, as the JSON store does.
func copyEntries(in []domain.ScoreHistoryEntry) []domain.ScoreHistoryEntry {
	if in == nil {
		return nil
	}
	out := make([]domain.ScoreHistoryEntry, len(in))
	copy(out, in)
	return out
}

// stubAdapter is a domain.Adapter over a fixed item list.
// Apply flips CurrentlyBlocked on the matching items.
type stubAdapter struct {
	mu      sync.Mutex
	d       domain.Domain
	items   []domain.ConfigItem
	scanErr error
	applied [][]string
	size    int64
	scans   int
}

func (s *stubAdapter) Domain() domain.Domain { return s.d }

func (s *stubAdapter) Scan(ctx context.Context) ([]domain.ConfigItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans++
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return append([]domain.ConfigItem(nil), s.items...), nil
}

func (s *stubAdapter) Apply(ctx context.Context, items []domain.ConfigItem, desired domain.DesiredState, progress domain.ProgressFunc) domain.BulkResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result domain.BulkResult
	var ids []string
	for i, item := range items {
		if progress != nil {
			progress(i+1, len(items), item.DisplayName)
		}
		ids = append(ids, item.ID)
		found := false
		for j := range s.items {
			if s.items[j].ID == item.ID {
				s.items[j].CurrentlyBlocked = desired == domain.Blocked
				found = true
			}
		}
		if !found {
			result.Add(item.ID, errors.New("unknown item"))
			continue
		}
		result.Add(item.ID, nil)
	}
	s.applied = append(s.applied, ids)
	return result
}

func (s *stubAdapter) ScanSized(ctx context.Context) ([]domain.ConfigItem, int64, error) {
	items, err := s.Scan(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, s.size, nil
}

func (s *stubAdapter) blocked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item.CurrentlyBlocked
		}
	}
	return false
}

// fakeAutostart records autostart toggles.
type fakeAutostart struct {
	enabled  bool
	execPath string
}

func (f *fakeAutostart) IsEnabled() (bool, error) { return f.enabled, nil }

func (f *fakeAutostart) Enable(execPath string) error {
	f.enabled = true
	f.execPath = execPath
	return nil
}

func (f *fakeAutostart) Disable() error {
	f.enabled = false
	return nil
}

func items(blocked ...bool) []domain.ConfigItem {
	out := make([]domain.ConfigItem, len(blocked))
	for i, b := range blocked {
		out[i] = domain.ConfigItem{
			ID:               string(rune('a' + i)),
			DisplayName:      string(rune('A' + i)),
			CurrentlyBlocked: b,
		}
	}
	return out
}

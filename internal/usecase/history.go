package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

// DefaultMaxHistoryEntries is how many days of history are kept.
const DefaultMaxHistoryEntries = 30

// ScoreHistory keeps one score entry per calendar day.
// Safe for concurrent use; every mutation is persisted before returning.
type ScoreHistory struct {
	mu         sync.Mutex
	store      domain.HistoryStore
	entries    []domain.ScoreHistoryEntry
	maxEntries int
	now        func() time.Time
	logger     *zap.Logger
}

// NewScoreHistory loads history from store. An unreadable document is
// logged and replaced by an empty history on the next save.
func NewScoreHistory(store domain.HistoryStore, logger *zap.Logger) *ScoreHistory {
	return NewScoreHistoryWithClock(store, DefaultMaxHistoryEntries, time.Now, logger)
}

// NewScoreHistoryWithClock creates a history with a custom clock and limit (for testing).
func NewScoreHistoryWithClock(store domain.HistoryStore, maxEntries int, now func() time.Time, logger *zap.Logger) *ScoreHistory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxHistoryEntries
	}
	h := &ScoreHistory{
		store:      store,
		maxEntries: maxEntries,
		now:        now,
		logger:     logger,
	}

	doc, err := store.Load()
	if err != nil {
		logger.Warn("score history unreadable, starting empty", zap.Error(err))
		return h
	}
	h.entries = doc.Entries
	return h
}

func (h *ScoreHistory) today() string {
	return h.now().Format(domain.HistoryDateLayout)
}

// Record stores entry as today's entry, replacing any earlier entry of
// the same day, then trims to the most recent days.
func (h *ScoreHistory) Record(entry domain.ScoreHistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.Date = h.today()
	replaced := false
	for i := range h.entries {
		if h.entries[i].Date == entry.Date {
			h.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		h.entries = append(h.entries, entry)
	}
	if len(h.entries) > h.maxEntries {
		h.entries = append([]domain.ScoreHistoryEntry(nil), h.entries[len(h.entries)-h.maxEntries:]...)
	}

	h.logger.Debug("score recorded",
		zap.String("date", entry.Date),
		zap.Int("score", entry.OverallScore))
	return h.saveLocked()
}

func (h *ScoreHistory) saveLocked() error {
	doc := &domain.ScoreHistoryDocument{
		Version: catalog.HistoryVersion,
		Entries: h.entries,
	}
	if doc.Entries == nil {
		doc.Entries = []domain.ScoreHistoryEntry{}
	}
	return h.store.Save(doc)
}

// History returns the entries dated within the last days days, oldest first.
func (h *ScoreHistory) History(days int) []domain.ScoreHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().AddDate(0, 0, -days).Format(domain.HistoryDateLayout)
	var out []domain.ScoreHistoryEntry
	for _, e := range h.entries {
		// Dates are YYYY-MM-DD, so string order is calendar order
		if e.Date >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

// Trend compares the overall score of the last two entries.
func (h *ScoreHistory) Trend() domain.Trend {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	if n < 2 {
		return domain.TrendStable
	}
	last, prev := h.entries[n-1].OverallScore, h.entries[n-2].OverallScore
	switch {
	case last > prev:
		return domain.TrendUp
	case last < prev:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// Latest returns the most recent entry.
func (h *ScoreHistory) Latest() (domain.ScoreHistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return domain.ScoreHistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// All returns a copy of every entry, oldest first.
func (h *ScoreHistory) All() []domain.ScoreHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]domain.ScoreHistoryEntry(nil), h.entries...)
}

// Clear removes every entry.
func (h *ScoreHistory) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.logger.Info("score history cleared")
	return h.saveLocked()
}

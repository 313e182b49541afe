package usecase

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
)

// clock is a settable time source.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)}
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(days int) { c.t = c.t.AddDate(0, 0, days) }

func entry(score int) domain.ScoreHistoryEntry {
	return domain.ScoreHistoryEntry{OverallScore: score, TelemetryScore: score, PermissionsScore: score}
}

func TestScoreHistory_SameDayOverwrites(t *testing.T) {
	store := &memHistoryStore{}
	c := newClock()
	h := NewScoreHistoryWithClock(store, 30, c.now, zap.NewNop())

	require.NoError(t, h.Record(entry(40)))
	c.t = c.t.Add(5 * time.Hour)
	require.NoError(t, h.Record(entry(70)))

	all := h.All()
	require.Len(t, all, 1)
	assert.Equal(t, "2026-03-10", all[0].Date)
	assert.Equal(t, 70, all[0].OverallScore)
	assert.Equal(t, 2, store.saves)
}

func TestScoreHistory_TrimsToMaxEntries(t *testing.T) {
	store := &memHistoryStore{}
	c := newClock()
	h := NewScoreHistoryWithClock(store, 30, c.now, zap.NewNop())

	for i := 0; i < 45; i++ {
		require.NoError(t, h.Record(entry(i)))
		c.advance(1)
	}

	all := h.All()
	require.Len(t, all, 30)
	assert.Equal(t, 15, all[0].OverallScore)
	assert.Equal(t, 44, all[29].OverallScore)
	assert.Len(t, store.doc.Entries, 30)
}

func TestScoreHistory_Trend(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   domain.Trend
	}{
		{"empty", nil, domain.TrendStable},
		{"single", []int{55}, domain.TrendStable},
		{"up", []int{40, 70}, domain.TrendUp},
		{"down", []int{70, 40}, domain.TrendDown},
		{"flat", []int{10, 60, 60}, domain.TrendStable},
		{"only last two count", []int{90, 20, 30}, domain.TrendUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			h := NewScoreHistoryWithClock(&memHistoryStore{}, 30, c.now, zap.NewNop())
			for _, s := range tt.scores {
				require.NoError(t, h.Record(entry(s)))
				c.advance(1)
			}
			assert.Equal(t, tt.want, h.Trend())
		})
	}
}

func TestScoreHistory_HistoryWindow(t *testing.T) {
	c := newClock()
	h := NewScoreHistoryWithClock(&memHistoryStore{}, 30, c.now, zap.NewNop())
	for i := 0; i < 10; i++ {
		require.NoError(t, h.Record(entry(i)))
		c.advance(1)
	}
	c.advance(-1) // back to the day of the last entry

	week := h.History(7)
	require.Len(t, week, 8)
	assert.Equal(t, 2, week[0].OverallScore)
	assert.Equal(t, "2026-03-19", week[len(week)-1].Date)

	assert.Len(t, h.History(0), 1)
	assert.Len(t, h.History(365), 10)
}

func TestScoreHistory_LatestAndClear(t *testing.T) {
	store := &memHistoryStore{}
	c := newClock()
	h := NewScoreHistoryWithClock(store, 30, c.now, zap.NewNop())

	_, ok := h.Latest()
	assert.False(t, ok)

	require.NoError(t, h.Record(entry(42)))
	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, 42, latest.OverallScore)

	require.NoError(t, h.Clear())
	assert.Empty(t, h.All())
	assert.NotNil(t, store.doc.Entries)
	assert.Empty(t, store.doc.Entries)
}

func TestScoreHistory_LoadFailureStartsEmpty(t *testing.T) {
	store := &memHistoryStore{loadErr: domain.NewOpError("parse history", "x", domain.ErrMalformedOutput, "", nil)}
	h := NewScoreHistoryWithClock(store, 30, newClock().now, zap.NewNop())
	assert.Empty(t, h.All())

	store.loadErr = nil
	require.NoError(t, h.Record(entry(1)))
	assert.Len(t, store.doc.Entries, 1)
}

func TestScoreHistory_SaveErrorIsReturned(t *testing.T) {
	store := &memHistoryStore{saveErr: errors.New("disk full")}
	h := NewScoreHistoryWithClock(store, 30, newClock().now, zap.NewNop())

	err := h.Record(entry(1))
	assert.EqualError(t, err, "disk full")
}

func TestScoreHistory_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score_history.json")
	c := newClock()

	h := NewScoreHistoryWithClock(infra.NewFileHistoryStoreWithPath(path), 30, c.now, zap.NewNop())
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Record(entry(10*i)))
		c.advance(1)
	}

	reopened := NewScoreHistoryWithClock(infra.NewFileHistoryStoreWithPath(path), 30, c.now, zap.NewNop())
	all := reopened.All()
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, fmt.Sprintf("2026-03-%d", 10+i), e.Date)
	}
	assert.Equal(t, domain.TrendUp, reopened.Trend())
}

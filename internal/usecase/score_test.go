package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/privguard/internal/domain"
)

func TestDomainScore(t *testing.T) {
	tests := []struct {
		name    string
		domain  domain.Domain
		blocked int
		total   int
		want    int
	}{
		{"empty permissions", domain.DomainPermissions, 0, 0, 100},
		{"empty telemetry", domain.DomainTelemetry, 0, 0, 0},
		{"empty firewall", domain.DomainFirewall, 0, 0, 0},
		{"empty cleanup", domain.DomainCleanup, 0, 0, 0},
		{"all blocked", domain.DomainTelemetry, 16, 16, 100},
		{"none blocked", domain.DomainPermissions, 0, 6, 0},
		{"rounds half up", domain.DomainFirewall, 1, 8, 13},
		{"rounds down", domain.DomainTelemetry, 1, 3, 33},
		{"two thirds", domain.DomainTelemetry, 2, 3, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainScore(tt.domain, tt.blocked, tt.total))
		})
	}
}

func TestScoreItems(t *testing.T) {
	items := []domain.ConfigItem{
		{ID: "a", CurrentlyBlocked: true},
		{ID: "b"},
		{ID: "c", CurrentlyBlocked: true},
		{ID: "d", ScanError: "permission denied"},
	}

	score := ScoreItems(domain.DomainTelemetry, items)

	assert.Equal(t, domain.PrivacyScore{
		Domain:       domain.DomainTelemetry,
		BlockedCount: 2,
		TotalCount:   4,
		Score:        50,
	}, score)
	assert.Equal(t, 100, ScoreItems(domain.DomainPermissions, nil).Score)
}

func TestOverallScore(t *testing.T) {
	assert.Equal(t, 0, OverallScore(0, 0))
	assert.Equal(t, 50, OverallScore(0, 100))
	assert.Equal(t, 58, OverallScore(33, 83))
	assert.Equal(t, 100, OverallScore(100, 100))
}

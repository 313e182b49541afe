// Package usecase contains application business logic.
package usecase

import (
	"math"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// Sentinel scores for a domain with no items.
const (
	emptyPermissionsScore = 100
	emptyDefaultScore     = 0
)

// DomainScore returns round(100*blocked/total), or the domain's sentinel
// when total is zero.
func DomainScore(d domain.Domain, blocked, total int) int {
	if total <= 0 {
		if d == domain.DomainPermissions {
			return emptyPermissionsScore
		}
		return emptyDefaultScore
	}
	return int(math.Round(100 * float64(blocked) / float64(total)))
}

// ScoreItems counts blocked items and scores them.
func ScoreItems(d domain.Domain, items []domain.ConfigItem) domain.PrivacyScore {
	blocked := 0
	for _, item := range items {
		if item.CurrentlyBlocked {
			blocked++
		}
	}
	return domain.PrivacyScore{
		Domain:       d,
		BlockedCount: blocked,
		TotalCount:   len(items),
		Score:        DomainScore(d, blocked, len(items)),
	}
}

// OverallScore is the rounded mean of the telemetry and permissions scores.
// Firewall and cleanup are reported but do not contribute.
func OverallScore(telemetry, permissions int) int {
	return int(math.Round(float64(telemetry+permissions) / 2))
}

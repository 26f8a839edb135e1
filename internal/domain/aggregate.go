package domain

import (
	"sort"
	"time"
)

// Summary holds the per-user dashboard aggregates recomputed on demand
// from the full queried record set.
type Summary struct {
	Total       float64
	ByCategory  map[Category]float64
	WeeklyTotal float64
}

// Summarize folds a set of activity records into dashboard statistics.
// WeeklyTotal covers records whose stored (week, year) matches the week of
// asOf; the stored keys are trusted, never recomputed from OccurredAt.
// Categories with no activity are absent from ByCategory.
func Summarize(records []Activity, asOf time.Time) Summary {
	week, year := WeekOf(asOf)
	summary := Summary{ByCategory: make(map[Category]float64)}
	for _, record := range records {
		summary.Total += record.CO2Kg
		summary.ByCategory[record.Category] += record.CO2Kg
		if record.Week == week && record.Year == year {
			summary.WeeklyTotal += record.CO2Kg
		}
	}
	return summary
}

// CommunityStats describes where a user stands against everyone else.
// Rank is 1-based with lower emissions ranking first; Rank 0 means the
// user is unranked (no recorded activity).
type CommunityStats struct {
	Average    float64
	Rank       int
	TotalUsers int
}

// CommunityStatsOf computes the community average and the target user's
// rank from per-user totals. Only users with at least one record appear in
// totals, so an inactive user neither drags the average toward zero nor
// holds a rank. Equal sums order by user ID so ranks stay deterministic.
func CommunityStatsOf(totals []UserTotal, targetUserID string) CommunityStats {
	if len(totals) == 0 {
		return CommunityStats{}
	}

	ranked := make([]UserTotal, len(totals))
	copy(ranked, totals)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalKg != ranked[j].TotalKg {
			return ranked[i].TotalKg < ranked[j].TotalKg
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	var sum float64
	rank := 0
	for i, entry := range ranked {
		sum += entry.TotalKg
		if entry.UserID == targetUserID {
			rank = i + 1
		}
	}

	return CommunityStats{
		Average:    sum / float64(len(ranked)),
		Rank:       rank,
		TotalUsers: len(ranked),
	}
}

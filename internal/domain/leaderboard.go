package domain

import "sort"

// LeaderboardPeriod selects the record window for the leaderboard.
type LeaderboardPeriod string

const (
	PeriodAll   LeaderboardPeriod = "all"
	PeriodWeek  LeaderboardPeriod = "week"
	PeriodMonth LeaderboardPeriod = "month"
)

// ParseLeaderboardPeriod validates a raw period, defaulting empty to all.
func ParseLeaderboardPeriod(raw string) (LeaderboardPeriod, error) {
	if raw == "" {
		return PeriodAll, nil
	}
	switch LeaderboardPeriod(raw) {
	case PeriodAll, PeriodWeek, PeriodMonth:
		return LeaderboardPeriod(raw), nil
	}
	return "", ErrInvalidInput
}

const (
	// DefaultLeaderboardLimit is applied when the caller asks for nothing.
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps the leaderboard size regardless of request.
	MaxLeaderboardLimit = 50
)

// LeaderboardEntry is one ranked row; lower emissions rank first. Rank is
// assigned by RankLeaderboard, contiguous from 1.
type LeaderboardEntry struct {
	UserID         string
	Username       string
	TotalEmissions float64
	Rank           int
}

// ClampLeaderboardLimit normalizes a requested limit into [1, max].
func ClampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// RankLeaderboard sorts entries ascending by total emissions (this is an
// eco leaderboard, so less is better) and truncates to limit. Equal totals
// order by user ID to keep the ranking deterministic.
func RankLeaderboard(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	ranked := make([]LeaderboardEntry, len(entries))
	copy(ranked, entries)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalEmissions != ranked[j].TotalEmissions {
			return ranked[i].TotalEmissions < ranked[j].TotalEmissions
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

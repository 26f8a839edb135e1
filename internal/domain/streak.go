package domain

import "sort"

// DefaultStreakThreshold is the weekly emission ceiling, in kg CO2, under
// which a week counts toward a low-emission streak.
const DefaultStreakThreshold = 100.0

// StreakResult reports consecutive low-emission weeks.
type StreakResult struct {
	Current int
	Longest int
}

// Streak walks per-week totals from the most recent week backwards and
// counts runs of weeks strictly under threshold. Weeks with no data are
// simply absent: they neither extend nor break a run. Current is the run
// starting at the most recent week with data; Longest is the best run seen
// anywhere in the walk.
func Streak(weeklyTotals map[int]float64, threshold float64) StreakResult {
	weeks := make([]int, 0, len(weeklyTotals))
	for week := range weeklyTotals {
		weeks = append(weeks, week)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(weeks)))

	var result StreakResult
	for _, week := range weeks {
		if weeklyTotals[week] >= threshold {
			break
		}
		result.Current++
	}

	run := 0
	for _, week := range weeks {
		if weeklyTotals[week] < threshold {
			run++
			if run > result.Longest {
				result.Longest = run
			}
		} else {
			run = 0
		}
	}
	return result
}

// WeeklyTotalsForYear groups a user's records from the given year into
// per-week emission sums, the input shape Streak expects.
func WeeklyTotalsForYear(records []Activity, year int) map[int]float64 {
	totals := make(map[int]float64)
	for _, record := range records {
		if record.Year == year {
			totals[record.Week] += record.CO2Kg
		}
	}
	return totals
}

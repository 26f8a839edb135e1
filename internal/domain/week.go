package domain

import "time"

// WeekOf maps a timestamp to its (week, year) grouping key. Week numbers
// start at 1 on January 1 and advance every seven ordinal days, so the last
// week of a year can be short and no ISO Monday alignment is applied. All
// timestamps are normalized to UTC before bucketing; write and read paths
// must both go through this function so stored keys never drift.
func WeekOf(t time.Time) (week, year int) {
	t = t.UTC()
	day := t.YearDay()
	week = (day + 6) / 7
	return week, t.Year()
}

// WeekStart returns the UTC midnight instant at which the given week begins.
func WeekStart(week, year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return jan1.AddDate(0, 0, (week-1)*7)
}

// Package timeutil holds the UTC day-boundary arithmetic used by the daily
// rollup. All calendar days are UTC midnight-to-midnight; ambiguity here
// produces off-by-one-day bugs in the aggregate series, so every boundary
// computation goes through this package.
package timeutil

import "time"

// DayStart truncates t to UTC midnight of the same calendar day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBounds returns the half-open interval [start, end) covering the UTC
// calendar day containing t.
func DayBounds(t time.Time) (start, end time.Time) {
	start = DayStart(t)
	return start, start.AddDate(0, 0, 1)
}

// DaysAgo returns UTC midnight n days before the day containing now.
func DaysAgo(now time.Time, n int) time.Time {
	return DayStart(now).AddDate(0, 0, -n)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

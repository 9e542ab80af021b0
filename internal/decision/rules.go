package decision

import "time"

// AccountAgeDays computes account age at UTC day granularity: both timestamps
// are truncated to their UTC calendar day before differencing, so an account
// created late on day 0 and checked early on day 180 still counts 180 days.
// A zero creation timestamp means age 0.
// This is pure domain logic - no I/O, no side effects.
func AccountAgeDays(createdAt, now time.Time) int {
	if createdAt.IsZero() {
		return 0
	}
	created := utcDay(createdAt)
	today := utcDay(now)
	if today.Before(created) {
		return 0
	}
	return int(today.Sub(created).Hours() / 24)
}

// MeetsMinimumAge applies the age policy. An age exactly equal to the
// threshold passes.
func MeetsMinimumAge(ageDays, minDays int) bool {
	return ageDays >= minDays
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

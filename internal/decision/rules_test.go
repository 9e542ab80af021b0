package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountAgeDays(t *testing.T) {
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	t.Run("exact threshold distance", func(t *testing.T) {
		created := now.AddDate(0, 0, -180)
		assert.Equal(t, 180, AccountAgeDays(created, now))
	})

	t.Run("day granularity ignores time of day", func(t *testing.T) {
		created := time.Date(2026, 1, 1, 23, 59, 59, 0, time.UTC)
		at := time.Date(2026, 6, 30, 0, 0, 1, 0, time.UTC)
		assert.Equal(t, 180, AccountAgeDays(created, at))
	})

	t.Run("local timestamps compare on their UTC day", func(t *testing.T) {
		// 2026-01-02T01:00+03:00 is still 2026-01-01 in UTC.
		loc := time.FixedZone("UTC+3", 3*60*60)
		created := time.Date(2026, 1, 2, 1, 0, 0, 0, loc)
		at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 1, AccountAgeDays(created, at))
	})

	t.Run("zero timestamp means age zero", func(t *testing.T) {
		assert.Equal(t, 0, AccountAgeDays(time.Time{}, now))
	})

	t.Run("future creation clamps to zero", func(t *testing.T) {
		assert.Equal(t, 0, AccountAgeDays(now.AddDate(0, 0, 3), now))
	})
}

func TestMeetsMinimumAge(t *testing.T) {
	assert.True(t, MeetsMinimumAge(180, 180), "age equal to threshold passes")
	assert.True(t, MeetsMinimumAge(400, 180))
	assert.False(t, MeetsMinimumAge(179, 180))
	assert.False(t, MeetsMinimumAge(0, 180))
}

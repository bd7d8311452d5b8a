package achievements

import (
	"fmt"
	"time"
)

const dayKeyLayout = "2006-01-02"

// DayKey returns the calendar day of t in t's location, as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// EpochDay converts a day key to days since 1970-01-01. Keys are read as UTC
// dates, so the result never depends on daylight saving transitions.
func EpochDay(key string) (int, error) {
	t, err := time.ParseInLocation(dayKeyLayout, key, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return int(t.Unix() / 86400), nil
}

// DayDiff returns the number of days from one key to another.
func DayDiff(from, to string) (int, error) {
	a, err := EpochDay(from)
	if err != nil {
		return 0, err
	}
	b, err := EpochDay(to)
	if err != nil {
		return 0, err
	}
	return b - a, nil
}

// AdvanceStreak returns the consecutive-day streak after activity on today,
// given the streak and day key of the previous activity. The same day keeps
// the streak, the next day extends it, anything else restarts it at 1.
func AdvanceStreak(streak int, last, today string) int {
	if last == "" {
		return 1
	}
	if last == today {
		return streak
	}
	diff, err := DayDiff(last, today)
	if err != nil || diff != 1 {
		return 1
	}
	return streak + 1
}

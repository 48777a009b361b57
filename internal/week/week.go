// Package week derives the canonical Monday start date that keys all
// weekly-scoped entities (meal plans and shopping lists).
package week

import "time"

// keyLayout is the date form used as the week key in the database.
const keyLayout = "2006-01-02"

// CurrentWeekStart returns the Monday at or before now, truncated to
// midnight in now's location. A Sunday maps six days back.
func CurrentWeekStart(now time.Time) time.Time {
	offset := 1 - int(now.Weekday())
	if now.Weekday() == time.Sunday {
		offset = -6
	}
	monday := now.AddDate(0, 0, offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
}

// ShiftWeek moves a week start forward or backward by whole weeks.
func ShiftWeek(weekStart time.Time, deltaWeeks int) time.Time {
	return weekStart.AddDate(0, 0, 7*deltaWeeks)
}

// Key formats a week start for storage and lookups.
func Key(weekStart time.Time) string {
	return weekStart.Format(keyLayout)
}

// ParseKey parses a stored week key back into a date.
func ParseKey(key string) (time.Time, error) {
	return time.Parse(keyLayout, key)
}

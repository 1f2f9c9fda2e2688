package models

import "time"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ClockMinutes converts a "HH:MM" clock string into minutes from midnight.
func ClockMinutes(clock string) (int, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// MinutesClock renders minutes from midnight as a "HH:MM" string.
func MinutesClock(minutes int) string {
	return time.Date(0, 1, 1, 0, minutes, 0, 0, time.UTC).Format("15:04")
}

// WeekdayIndex maps a calendar date onto the Monday-first weekday numbering
// (0 = Monday .. 6 = Sunday) used by availability patterns.
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

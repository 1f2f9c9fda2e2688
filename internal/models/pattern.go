package models

import (
	"strconv"
	"strings"
	"time"
)

// PatternFrequency controls which days a recurring availability pattern
// covers.
type PatternFrequency string

const (
	FrequencyDaily    PatternFrequency = "daily"
	FrequencyWeekdays PatternFrequency = "weekdays"
	FrequencyWeekly   PatternFrequency = "weekly"
	FrequencyCustom   PatternFrequency = "custom"
)

// AvailabilityPattern is a recurring weekly availability template. A nil
// PractitionerID marks an organization-wide pattern (baseline office hours
// that apply to every practitioner).
type AvailabilityPattern struct {
	ID             string           `db:"id" json:"id"`
	PractitionerID *string          `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Title          string           `db:"title" json:"title"`
	Frequency      PatternFrequency `db:"frequency" json:"frequency"`
	// Weekdays is a comma separated list of Monday-first day indexes
	// ("0,1,2,3,4"), consulted for weekly and custom frequencies.
	Weekdays   string     `db:"weekdays" json:"weekdays"`
	StartTime  string     `db:"start_time" json:"start_time"`
	EndTime    string     `db:"end_time" json:"end_time"`
	ValidFrom  *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// OrganizationWide reports whether the pattern applies to every practitioner.
func (p *AvailabilityPattern) OrganizationWide() bool {
	return p.PractitionerID == nil
}

// AppliesTo reports whether the pattern covers the given calendar date.
// Inactive patterns never apply; date components beyond the day are ignored.
func (p *AvailabilityPattern) AppliesTo(date time.Time) bool {
	if !p.Active {
		return false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if p.ValidFrom != nil && day.Before(truncateDay(*p.ValidFrom)) {
		return false
	}
	if p.ValidUntil != nil && day.After(truncateDay(*p.ValidUntil)) {
		return false
	}

	weekday := WeekdayIndex(date)
	switch p.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekdays:
		return weekday < 5
	case FrequencyWeekly, FrequencyCustom:
		for _, d := range p.WeekdayIndexes() {
			if d == weekday {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// WeekdayIndexes parses the stored weekday list, discarding malformed and
// out-of-range entries.
func (p *AvailabilityPattern) WeekdayIndexes() []int {
	if p.Weekdays == "" {
		return nil
	}
	parts := strings.Split(p.Weekdays, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 6 {
			continue
		}
		days = append(days, d)
	}
	return days
}

// PatternFilter narrows down pattern listings.
type PatternFilter struct {
	PractitionerID *string
	IncludeOrgWide bool
	ActiveOnly     bool
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

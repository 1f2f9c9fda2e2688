package models

import "time"

// ExceptionKind classifies a date-specific availability override. Every kind
// blocks booking identically; the distinction exists for display and
// reporting only.
type ExceptionKind string

const (
	ExceptionBlocked  ExceptionKind = "blocked"
	ExceptionHoliday  ExceptionKind = "holiday"
	ExceptionVacation ExceptionKind = "vacation"
)

// Valid reports whether the kind belongs to the closed set.
func (k ExceptionKind) Valid() bool {
	switch k {
	case ExceptionBlocked, ExceptionHoliday, ExceptionVacation:
		return true
	}
	return false
}

// Label returns the human readable form used in calendar displays.
func (k ExceptionKind) Label() string {
	switch k {
	case ExceptionHoliday:
		return "Holiday"
	case ExceptionVacation:
		return "Vacation"
	default:
		return "Blocked"
	}
}

// AvailabilityException removes availability on one calendar date, either for
// the whole day or a sub-range. A nil PractitionerID marks an
// organization-wide closure, which individual practitioners cannot override.
type AvailabilityException struct {
	ID             string        `db:"id" json:"id"`
	PractitionerID *string       `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Date           time.Time     `db:"exception_date" json:"date"`
	Kind           ExceptionKind `db:"kind" json:"kind"`
	AllDay         bool          `db:"all_day" json:"all_day"`
	StartTime      *string       `db:"start_time" json:"start_time,omitempty"`
	EndTime        *string       `db:"end_time" json:"end_time,omitempty"`
	Reason         *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// OrganizationWide reports whether the exception closes the whole practice.
func (e *AvailabilityException) OrganizationWide() bool {
	return e.PractitionerID == nil
}

// ExceptionFilter narrows down exception listings.
type ExceptionFilter struct {
	PractitionerID *string
	IncludeOrgWide bool
	From           *time.Time
	To             *time.Time
}

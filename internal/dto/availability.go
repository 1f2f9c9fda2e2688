package dto

import "time"

// AnyPractitioner is the sentinel practitioner id enabling first-available
// resolution across every active practitioner.
const AnyPractitioner = "any"

// AvailabilityRequest asks for bookable slots on one calendar date.
type AvailabilityRequest struct {
	PractitionerID  string
	Date            time.Time
	DurationMinutes int
}

// AvailabilitySlot is one bookable interval. PractitionerIDs carries every
// practitioner able to serve the slot (a single element outside
// any-practitioner mode).
type AvailabilitySlot struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	PractitionerIDs []string  `json:"practitioner_ids"`
}

// PatternRequest creates or updates an availability pattern.
type PatternRequest struct {
	PractitionerID *string `json:"practitioner_id"`
	Title          string  `json:"title" validate:"required,max=100"`
	Frequency      string  `json:"frequency" validate:"required,oneof=daily weekdays weekly custom"`
	Weekdays       string  `json:"weekdays" validate:"omitempty,max=50"`
	StartTime      string  `json:"start_time" validate:"required"`
	EndTime        string  `json:"end_time" validate:"required"`
	ValidFrom      *string `json:"valid_from" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil     *string `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Active         *bool   `json:"active"`
}

// ExceptionRequest creates a date-specific availability override.
type ExceptionRequest struct {
	PractitionerID *string `json:"practitioner_id"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	Kind           string  `json:"kind" validate:"required,oneof=blocked holiday vacation"`
	AllDay         *bool   `json:"all_day"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	Reason         *string `json:"reason" validate:"omitempty,max=200"`
}

package dto

import "time"

// CreateAppointmentRequest books a new appointment through the booking
// coordinator.
type CreateAppointmentRequest struct {
	PractitionerID  string  `json:"practitioner_id" validate:"required,uuid4"`
	PatientID       string  `json:"patient_id" validate:"required,uuid4"`
	StartTime       string  `json:"start_time" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required"`
	Title           string  `json:"title" validate:"required,max=200"`
	AppointmentType *string `json:"appointment_type" validate:"omitempty,max=100"`
	Location        *string `json:"location" validate:"omitempty,max=200"`
	Notes           *string `json:"notes"`
}

// MoveAppointmentRequest relocates an existing appointment. Duration zero
// keeps the current duration.
type MoveAppointmentRequest struct {
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=0"`
}

// ConflictCheck reports whether a candidate move would collide, including
// the blocking range so UIs can explain why.
type ConflictCheck struct {
	Conflict  bool       `json:"conflict"`
	Message   string     `json:"message,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

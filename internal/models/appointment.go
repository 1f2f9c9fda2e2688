package models

import (
	"fmt"
	"time"
)

// AppointmentStatus is the lifecycle state of a booking. Cancelled and
// completed appointments stay in history but no longer occupy a slot.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Appointment is a booked practitioner-patient meeting. Time handling is in
// UTC; DurationMinutes is stored alongside the range because calendar
// rendering and validation need it independently.
type Appointment struct {
	ID              string            `db:"id" json:"id"`
	PractitionerID  string            `db:"practitioner_id" json:"practitioner_id"`
	PatientID       string            `db:"patient_id" json:"patient_id"`
	CreatedBy       string            `db:"created_by" json:"created_by"`
	Title           string            `db:"title" json:"title"`
	AppointmentType *string           `db:"appointment_type" json:"appointment_type,omitempty"`
	Location        *string           `db:"location" json:"location,omitempty"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// BookingConflictError is returned when a requested time range overlaps an
// existing scheduled appointment for the same practitioner. It is an
// expected outcome under concurrent booking, not an exceptional one.
type BookingConflictError struct {
	PractitionerID string    `json:"practitioner_id"`
	AppointmentID  string    `json:"appointment_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// Error implements the error interface for booking conflicts.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("slot overlaps appointment %s (%s - %s)",
		e.AppointmentID,
		e.StartTime.Format("2006-01-02 15:04"),
		e.EndTime.Format("15:04"),
	)
}

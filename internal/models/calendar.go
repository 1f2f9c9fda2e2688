package models

import "time"

// CalendarEntry is one denormalized row of the calendar index: one row per
// calendar date an appointment touches, carrying enough copied state to
// answer range queries without joining back to the appointments table. It is
// fully derived data and must always be re-derivable from the appointment
// store.
type CalendarEntry struct {
	AppointmentID   string            `db:"appointment_id" json:"appointment_id"`
	EntryDate       time.Time         `db:"entry_date" json:"entry_date"`
	PractitionerID  string            `db:"practitioner_id" json:"practitioner_id"`
	PatientID       string            `db:"patient_id" json:"patient_id"`
	Title           string            `db:"title" json:"title"`
	AppointmentType *string           `db:"appointment_type" json:"appointment_type,omitempty"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
}

// CalendarFilter narrows down calendar index range queries.
type CalendarFilter struct {
	StartDate       time.Time
	EndDate         time.Time
	PractitionerIDs []string
	Statuses        []AppointmentStatus
}

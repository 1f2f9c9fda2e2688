package dto

// CalendarEventRow is the calendar grid row shape returned to UIs, one row
// per appointment per date.
type CalendarEventRow struct {
	AppointmentID   string  `json:"appointment_id"`
	Date            string  `json:"date"`
	PractitionerID  string  `json:"practitioner_id"`
	PatientID       string  `json:"patient_id"`
	Title           string  `json:"title"`
	AppointmentType *string `json:"appointment_type,omitempty"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Status          string  `json:"status"`
}

// RebuildIndexRequest regenerates calendar index entries for a date range.
type RebuildIndexRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

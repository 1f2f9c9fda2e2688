package models

import "time"

// Practitioner represents a bookable clinician.
type Practitioner struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Specialty     *string   `db:"specialty" json:"specialty,omitempty"`
	CalendarColor *string   `db:"calendar_color" json:"calendar_color,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

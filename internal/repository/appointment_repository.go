package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/practicekit/scheduling-api/internal/models"
)

// AppointmentRepository owns the appointment store and is the single
// mutation path for bookings. Every create/move/cancel runs in one
// transaction that re-checks the overlap invariant and keeps the calendar
// index in step with the appointment rows.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, practitioner_id, patient_id, created_by, title, appointment_type, location, notes, start_time, end_time, duration_minutes, status, created_at, updated_at`

// FindByID fetches one appointment.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	var appointment models.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// FindOverlap returns the first scheduled appointment for the practitioner
// overlapping [start, end), excluding excludeID when non-empty. This is the
// lock-free probe used by conflict pre-checks; the booking transaction
// re-runs the same predicate under the practitioner lock.
func (r *AppointmentRepository) FindOverlap(ctx context.Context, practitionerID string, start, end time.Time, excludeID string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments
WHERE practitioner_id = $1 AND status = $2 AND start_time < $3 AND end_time > $4`, appointmentColumns)
	args := []interface{}{practitionerID, models.StatusScheduled, end, start}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time ASC LIMIT 1"

	var appointment models.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("check appointment overlap: %w", err)
	}
	return &appointment, nil
}

// CreateScheduled books a new appointment. The overlap check and the insert
// are atomic with respect to other coordinators: the practitioner row is
// locked first, so two simultaneous creates for the same slot serialize and
// exactly one observes the other's row. A *models.BookingConflictError is
// returned when the slot is taken.
func (r *AppointmentRepository) CreateScheduled(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appointment.Status = models.StatusScheduled
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockPractitioner(ctx, tx, appointment.PractitionerID); err != nil {
		return err
	}
	if err := checkNoOverlap(ctx, tx, appointment.PractitionerID, appointment.StartTime, appointment.EndTime, ""); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO appointments (id, practitioner_id, patient_id, created_by, title, appointment_type, location, notes, start_time, end_time, duration_minutes, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := tx.ExecContext(ctx, insertQuery,
		appointment.ID, appointment.PractitionerID, appointment.PatientID, appointment.CreatedBy,
		appointment.Title, appointment.AppointmentType, appointment.Location, appointment.Notes,
		appointment.StartTime, appointment.EndTime, appointment.DurationMinutes, appointment.Status,
		appointment.CreatedAt, appointment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := syncIndexRows(ctx, tx, appointment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking transaction: %w", err)
	}
	return nil
}

// Reschedule moves an appointment to a new range as one atomic unit. On
// conflict the stored appointment is left completely untouched. Returns
// sql.ErrNoRows when the appointment is missing or not scheduled.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id string, start, end time.Time, durationMinutes int) (*models.Appointment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 AND status = $2 FOR UPDATE`, appointmentColumns)
	var appointment models.Appointment
	if err := tx.GetContext(ctx, &appointment, query, id, models.StatusScheduled); err != nil {
		return nil, err
	}

	if err := lockPractitioner(ctx, tx, appointment.PractitionerID); err != nil {
		return nil, err
	}
	if err := checkNoOverlap(ctx, tx, appointment.PractitionerID, start, end, id); err != nil {
		return nil, err
	}

	appointment.StartTime = start
	appointment.EndTime = end
	appointment.DurationMinutes = durationMinutes
	appointment.UpdatedAt = time.Now().UTC()

	const updateQuery = `UPDATE appointments SET start_time = $2, end_time = $3, duration_minutes = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, id, start, end, durationMinutes, appointment.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update appointment time: %w", err)
	}

	if err := syncIndexRows(ctx, tx, &appointment); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move transaction: %w", err)
	}
	return &appointment, nil
}

// Cancel transitions a scheduled appointment to cancelled, keeping history.
// Returns sql.ErrNoRows when nothing was scheduled under the id.
func (r *AppointmentRepository) Cancel(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateQuery = `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := tx.ExecContext(ctx, updateQuery, id, models.StatusCancelled, time.Now().UTC(), models.StatusScheduled)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel appointment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const indexQuery = `UPDATE appointment_calendar_index SET status = $2 WHERE appointment_id = $1`
	if _, err := tx.ExecContext(ctx, indexQuery, id, models.StatusCancelled); err != nil {
		return fmt.Errorf("update calendar index status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel transaction: %w", err)
	}
	return nil
}

// lockPractitioner takes the per-practitioner row lock that serializes
// booking transactions touching the same schedule.
func lockPractitioner(ctx context.Context, tx *sqlx.Tx, practitionerID string) error {
	var locked string
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM practitioners WHERE id = $1 FOR UPDATE`, practitionerID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock practitioner schedule: %w", err)
	}
	return nil
}

func checkNoOverlap(ctx context.Context, tx *sqlx.Tx, practitionerID string, start, end time.Time, excludeID string) error {
	query := `SELECT id, start_time, end_time FROM appointments
WHERE practitioner_id = $1 AND status = $2 AND start_time < $3 AND end_time > $4`
	args := []interface{}{practitionerID, models.StatusScheduled, end, start}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time ASC LIMIT 1"

	var existing struct {
		ID        string    `db:"id"`
		StartTime time.Time `db:"start_time"`
		EndTime   time.Time `db:"end_time"`
	}
	err := tx.GetContext(ctx, &existing, query, args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("booking overlap check: %w", err)
	}
	return &models.BookingConflictError{
		PractitionerID: practitionerID,
		AppointmentID:  existing.ID,
		StartTime:      existing.StartTime,
		EndTime:        existing.EndTime,
	}
}

// syncIndexRows replaces the calendar index rows for the appointment inside
// the booking transaction: the index never observably lags the store for the
// coordinator's own writes.
func syncIndexRows(ctx context.Context, tx *sqlx.Tx, appointment *models.Appointment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_calendar_index WHERE appointment_id = $1`, appointment.ID); err != nil {
		return fmt.Errorf("clear calendar index rows: %w", err)
	}

	const insertQuery = `INSERT INTO appointment_calendar_index (appointment_id, entry_date, practitioner_id, patient_id, title, appointment_type, start_time, end_time, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, date := range entryDates(appointment.StartTime, appointment.EndTime) {
		if _, err := tx.ExecContext(ctx, insertQuery,
			appointment.ID, date, appointment.PractitionerID, appointment.PatientID,
			appointment.Title, appointment.AppointmentType,
			appointment.StartTime, appointment.EndTime, appointment.Status,
		); err != nil {
			return fmt.Errorf("insert calendar index row: %w", err)
		}
	}
	return nil
}

// entryDates lists every calendar date the range [start, end) touches.
// Appointments are normally intra-day, yielding a single date.
func entryDates(start, end time.Time) []time.Time {
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	lastInstant := end.Add(-time.Nanosecond)
	last := time.Date(lastInstant.Year(), lastInstant.Month(), lastInstant.Day(), 0, 0, 0, 0, time.UTC)
	if last.Before(first) {
		last = first
	}

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

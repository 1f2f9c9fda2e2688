package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/practicekit/scheduling-api/internal/models"
)

// CalendarRepository reads and rebuilds the calendar index, the date-keyed
// projection of the appointment store that calendar views query instead of
// scanning appointment history.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

const calendarColumns = `appointment_id, entry_date, practitioner_id, patient_id, title, appointment_type, start_time, end_time, status`

// QueryRange returns index entries for the date range, ordered by date then
// start time. Work is proportional to the range requested, not to total
// appointment history.
func (r *CalendarRepository) QueryRange(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error) {
	where := []string{"entry_date >= $1", "entry_date <= $2"}
	args := []interface{}{dayOf(filter.StartDate), dayOf(filter.EndDate)}

	if len(filter.PractitionerIDs) > 0 {
		where = append(where, fmt.Sprintf("practitioner_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.PractitionerIDs))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}

	query := fmt.Sprintf(`SELECT %s FROM appointment_calendar_index WHERE %s ORDER BY entry_date ASC, start_time ASC`,
		calendarColumns, strings.Join(where, " AND "))

	var entries []models.CalendarEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("query calendar index: %w", err)
	}
	return entries, nil
}

// EntriesForPractitionerDate returns the practitioner's index rows on one
// date; the availability resolver subtracts these from the open intervals.
func (r *CalendarRepository) EntriesForPractitionerDate(ctx context.Context, practitionerID string, date time.Time) ([]models.CalendarEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointment_calendar_index
WHERE practitioner_id = $1 AND entry_date = $2 AND status = $3 ORDER BY start_time ASC`, calendarColumns)

	var entries []models.CalendarEntry
	if err := r.db.SelectContext(ctx, &entries, query, practitionerID, dayOf(date), models.StatusScheduled); err != nil {
		return nil, fmt.Errorf("load booked entries: %w", err)
	}
	return entries, nil
}

// Rebuild regenerates index rows for every appointment touching the date
// range. It is idempotent and exists as a disaster-recovery and bulk-import
// correction tool; the booking path keeps the index current on its own.
func (r *CalendarRepository) Rebuild(ctx context.Context, startDate, endDate time.Time) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin index rebuild: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rangeStart := dayOf(startDate)
	rangeEnd := dayOf(endDate).AddDate(0, 0, 1)

	// Drop every index row claiming a date in the range, including drifted
	// rows whose appointment no longer touches that date. The loop below
	// re-derives the correct rows from the appointment store.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM appointment_calendar_index WHERE entry_date >= $1 AND entry_date < $2`,
		rangeStart, rangeEnd,
	); err != nil {
		return 0, fmt.Errorf("clear calendar index range: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE start_time < $1 AND end_time > $2 ORDER BY id ASC`, appointmentColumns)
	var appointments []models.Appointment
	if err := tx.SelectContext(ctx, &appointments, query, rangeEnd, rangeStart); err != nil {
		return 0, fmt.Errorf("scan appointments for rebuild: %w", err)
	}

	rebuilt := 0
	for i := range appointments {
		if err := syncIndexRows(ctx, tx, &appointments[i]); err != nil {
			return 0, err
		}
		rebuilt++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit index rebuild: %w", err)
	}
	return rebuilt, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/practicekit/scheduling-api/internal/models"
)

func calendarRows() *sqlmock.Rows {
	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"appointment_id", "entry_date", "practitioner_id", "patient_id", "title",
		"appointment_type", "start_time", "end_time", "status",
	}).
		AddRow("apt-1", day, "prac-1", "pat-1", "Checkup", nil,
			day.Add(10*time.Hour), day.Add(11*time.Hour), "scheduled").
		AddRow("apt-2", day, "prac-1", "pat-2", "Follow-up", nil,
			day.Add(14*time.Hour), day.Add(15*time.Hour), "scheduled")
}

func TestCalendarQueryRangeAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("entry_date >= $1 AND entry_date <= $2 AND practitioner_id = ANY($3) AND status = ANY($4)")).
		WithArgs(start, end, pq.Array([]string{"prac-1"}), pq.Array([]string{"scheduled"})).
		WillReturnRows(calendarRows())

	entries, err := repo.QueryRange(context.Background(), models.CalendarFilter{
		StartDate:       start,
		EndDate:         end,
		PractitionerIDs: []string{"prac-1"},
		Statuses:        []models.AppointmentStatus{models.StatusScheduled},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "apt-1", entries[0].AppointmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarQueryRangeWithoutOptionalFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entry_date >= $1 AND entry_date <= $2 ORDER BY entry_date ASC, start_time ASC")).
		WithArgs(start, end).
		WillReturnRows(calendarRows())

	_, err := repo.QueryRange(context.Background(), models.CalendarFilter{StartDate: start, EndDate: end})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntriesForPractitionerDateOnlyScheduled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE practitioner_id = $1 AND entry_date = $2 AND status = $3")).
		WithArgs("prac-1", day, models.StatusScheduled).
		WillReturnRows(calendarRows())

	entries, err := repo.EntriesForPractitionerDate(context.Background(), "prac-1", day.Add(9*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildResyncsEveryAppointmentInRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointment_calendar_index WHERE entry_date >= $1 AND entry_date < $2")).
		WithArgs(start, end.AddDate(0, 0, 1)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE start_time < $1 AND end_time > $2 ORDER BY id ASC")).
		WithArgs(end.AddDate(0, 0, 1), start).
		WillReturnRows(appointmentRow("apt-1", bookingStart, bookingEnd))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointment_calendar_index WHERE appointment_id = $1")).
		WithArgs("apt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointment_calendar_index")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rebuilt, err := repo.Rebuild(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, 1, rebuilt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildEmptyRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointment_calendar_index WHERE entry_date >= $1 AND entry_date < $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE start_time < $1 AND end_time > $2")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	rebuilt, err := repo.Rebuild(context.Background(), start, start)
	require.NoError(t, err)
	require.Zero(t, rebuilt)
	require.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type fakeCalendarStore struct {
	entries      []models.CalendarEntry
	rebuilt      int
	lastFilter   models.CalendarFilter
	rebuildStart time.Time
	rebuildEnd   time.Time
}

func (f *fakeCalendarStore) QueryRange(_ context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error) {
	f.lastFilter = filter
	return f.entries, nil
}

func (f *fakeCalendarStore) Rebuild(_ context.Context, startDate, endDate time.Time) (int, error) {
	f.rebuildStart = startDate
	f.rebuildEnd = endDate
	return f.rebuilt, nil
}

func TestCalendarQueryPassesFilter(t *testing.T) {
	store := &fakeCalendarStore{entries: []models.CalendarEntry{
		{AppointmentID: "apt-1", EntryDate: tuesday},
	}}
	svc := NewCalendarService(store, 93, zap.NewNop())

	entries, err := svc.Query(context.Background(), models.CalendarFilter{
		StartDate:       tuesday,
		EndDate:         tuesday.AddDate(0, 0, 6),
		PractitionerIDs: []string{testPractitioner},
		Statuses:        []models.AppointmentStatus{models.StatusScheduled},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, []string{testPractitioner}, store.lastFilter.PractitionerIDs)
}

func TestCalendarQueryRejectsOversizedRange(t *testing.T) {
	svc := NewCalendarService(&fakeCalendarStore{}, 93, zap.NewNop())

	_, err := svc.Query(context.Background(), models.CalendarFilter{
		StartDate: tuesday,
		EndDate:   tuesday.AddDate(0, 0, 94),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarQueryRejectsInvertedRange(t *testing.T) {
	svc := NewCalendarService(&fakeCalendarStore{}, 93, zap.NewNop())

	_, err := svc.Query(context.Background(), models.CalendarFilter{
		StartDate: tuesday,
		EndDate:   tuesday.AddDate(0, 0, -1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarQueryRejectsUnknownStatus(t *testing.T) {
	svc := NewCalendarService(&fakeCalendarStore{}, 93, zap.NewNop())

	_, err := svc.Query(context.Background(), models.CalendarFilter{
		StartDate: tuesday,
		EndDate:   tuesday,
		Statuses:  []models.AppointmentStatus{"tentative"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRebuildIndexReturnsCount(t *testing.T) {
	store := &fakeCalendarStore{rebuilt: 42}
	svc := NewCalendarService(store, 93, zap.NewNop())

	count, err := svc.RebuildIndex(context.Background(), tuesday, tuesday.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.Equal(t, tuesday, store.rebuildStart)
}

// indexedStore keeps appointment rows and calendar index rows in step the
// way the transactional repository does, letting service-level tests check
// that calendar queries stay equivalent to a scan of the appointment store.
type indexedStore struct {
	appointments map[string]*models.Appointment
	index        []models.CalendarEntry
}

func newIndexedStore() *indexedStore {
	return &indexedStore{appointments: map[string]*models.Appointment{}}
}

func indexRowFor(a *models.Appointment) models.CalendarEntry {
	return models.CalendarEntry{
		AppointmentID:   a.ID,
		EntryDate:       time.Date(a.StartTime.Year(), a.StartTime.Month(), a.StartTime.Day(), 0, 0, 0, 0, time.UTC),
		PractitionerID:  a.PractitionerID,
		PatientID:       a.PatientID,
		Title:           a.Title,
		AppointmentType: a.AppointmentType,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		Status:          a.Status,
	}
}

func (s *indexedStore) syncIndex(a *models.Appointment) {
	kept := s.index[:0]
	for _, row := range s.index {
		if row.AppointmentID != a.ID {
			kept = append(kept, row)
		}
	}
	s.index = append(kept, indexRowFor(a))
}

func (s *indexedStore) FindByID(_ context.Context, id string) (*models.Appointment, error) {
	if a, ok := s.appointments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *indexedStore) FindOverlap(_ context.Context, practitionerID string, start, end time.Time, excludeID string) (*models.Appointment, error) {
	for _, a := range s.appointments {
		if a.ID == excludeID || a.PractitionerID != practitionerID || a.Status != models.StatusScheduled {
			continue
		}
		if a.StartTime.Before(end) && a.EndTime.After(start) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *indexedStore) CreateScheduled(ctx context.Context, appointment *models.Appointment) error {
	if existing, _ := s.FindOverlap(ctx, appointment.PractitionerID, appointment.StartTime, appointment.EndTime, ""); existing != nil {
		return &models.BookingConflictError{
			PractitionerID: appointment.PractitionerID,
			AppointmentID:  existing.ID,
			StartTime:      existing.StartTime,
			EndTime:        existing.EndTime,
		}
	}
	appointment.Status = models.StatusScheduled
	copied := *appointment
	s.appointments[appointment.ID] = &copied
	s.syncIndex(&copied)
	return nil
}

func (s *indexedStore) Reschedule(_ context.Context, id string, start, end time.Time, durationMinutes int) (*models.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok || a.Status != models.StatusScheduled {
		return nil, sql.ErrNoRows
	}
	a.StartTime = start
	a.EndTime = end
	a.DurationMinutes = durationMinutes
	s.syncIndex(a)
	copied := *a
	return &copied, nil
}

func (s *indexedStore) Cancel(_ context.Context, id string) error {
	a, ok := s.appointments[id]
	if !ok || a.Status != models.StatusScheduled {
		return sql.ErrNoRows
	}
	a.Status = models.StatusCancelled
	s.syncIndex(a)
	return nil
}

func (s *indexedStore) QueryRange(_ context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error) {
	var entries []models.CalendarEntry
	for _, row := range s.index {
		if row.EntryDate.Before(filter.StartDate) || row.EntryDate.After(filter.EndDate) {
			continue
		}
		entries = append(entries, row)
	}
	sortEntries(entries)
	return entries, nil
}

func (s *indexedStore) Rebuild(_ context.Context, _, _ time.Time) (int, error) {
	s.index = s.index[:0]
	for _, a := range s.appointments {
		s.index = append(s.index, indexRowFor(a))
	}
	return len(s.appointments), nil
}

func sortEntries(entries []models.CalendarEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].StartTime.Before(entries[j].StartTime)
	})
}

// The calendar index must answer range queries exactly as a scan of the
// appointment store would, through an arbitrary create/move/cancel history
// and across a rebuild.
func TestCalendarIndexMatchesAppointmentStore(t *testing.T) {
	store := newIndexedStore()
	events := &recordingPublisher{}
	patients := &fakePatientFinder{patients: map[string]*models.Patient{
		testPatient: {ID: testPatient, FullName: "Pat Doe"},
	}}
	booking := NewBookingService(store, activePractitioners(testPractitioner), patients, events, nil, nil, 30, zap.NewNop())
	booking.now = func() time.Time { return time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC) }
	calendar := NewCalendarService(store, 93, zap.NewNop())
	ctx := context.Background()

	first, err := booking.Book(ctx, testUser, dto.CreateAppointmentRequest{
		PractitionerID:  testPractitioner,
		PatientID:       testPatient,
		Title:           "Checkup",
		StartTime:       "2026-03-03T09:00:00Z",
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	second, err := booking.Book(ctx, testUser, dto.CreateAppointmentRequest{
		PractitionerID:  testPractitioner,
		PatientID:       testPatient,
		Title:           "Follow-up",
		StartTime:       "2026-03-03T14:00:00Z",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	_, err = booking.Move(ctx, first.ID, dto.MoveAppointmentRequest{StartTime: "2026-03-04T09:00:00Z"})
	require.NoError(t, err)

	_, err = booking.Cancel(ctx, second.ID)
	require.NoError(t, err)

	filter := models.CalendarFilter{StartDate: tuesday, EndDate: tuesday.AddDate(0, 0, 1)}

	expected := make([]models.CalendarEntry, 0, len(store.appointments))
	for _, a := range store.appointments {
		expected = append(expected, indexRowFor(a))
	}
	sortEntries(expected)

	entries, err := calendar.Query(ctx, filter)
	require.NoError(t, err)
	require.Equal(t, expected, entries)

	// A rebuild must be a no-op on an index the booking path kept current.
	count, err := calendar.RebuildIndex(ctx, tuesday, tuesday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rebuilt, err := calendar.Query(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, entries, rebuilt)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type stubPatternReader struct {
	byPractitioner map[string][]models.AvailabilityPattern
}

func (s *stubPatternReader) ListForResolution(_ context.Context, practitionerID string) ([]models.AvailabilityPattern, error) {
	return s.byPractitioner[practitionerID], nil
}

type stubExceptionReader struct {
	byPractitioner map[string][]models.AvailabilityException
}

func (s *stubExceptionReader) ListForDate(_ context.Context, practitionerID string, _ time.Time) ([]models.AvailabilityException, error) {
	return s.byPractitioner[practitionerID], nil
}

type stubBookedReader struct {
	byPractitioner map[string][]models.CalendarEntry
}

func (s *stubBookedReader) EntriesForPractitionerDate(_ context.Context, practitionerID string, _ time.Time) ([]models.CalendarEntry, error) {
	return s.byPractitioner[practitionerID], nil
}

type stubPractitionerReader struct {
	practitioners map[string]*models.Practitioner
	active        []models.Practitioner
}

func (s *stubPractitionerReader) FindByID(_ context.Context, id string) (*models.Practitioner, error) {
	if p, ok := s.practitioners[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubPractitionerReader) ListActive(_ context.Context) ([]models.Practitioner, error) {
	return s.active, nil
}

const (
	testPractitioner  = "0c5b9a9e-17a3-4f2d-9a51-0b8f6d0a1001"
	otherPractitioner = "0c5b9a9e-17a3-4f2d-9a51-0b8f6d0a1002"
)

// tuesday is a known Tuesday used across resolution tests.
var tuesday = time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func weeklyPattern(practitionerID *string, weekdays, start, end string) models.AvailabilityPattern {
	return models.AvailabilityPattern{
		ID:             "pat-1",
		PractitionerID: practitionerID,
		Title:          "Clinic hours",
		Frequency:      models.FrequencyWeekly,
		Weekdays:       weekdays,
		StartTime:      start,
		EndTime:        end,
		Active:         true,
	}
}

func newTestAvailabilityService(
	patterns map[string][]models.AvailabilityPattern,
	exceptions map[string][]models.AvailabilityException,
	booked map[string][]models.CalendarEntry,
	practitioners *stubPractitionerReader,
) *AvailabilityService {
	return NewAvailabilityService(
		&stubPatternReader{byPractitioner: patterns},
		&stubExceptionReader{byPractitioner: exceptions},
		&stubBookedReader{byPractitioner: booked},
		practitioners,
		nil,
		nil,
		30,
		zap.NewNop(),
	)
}

func activePractitioners(ids ...string) *stubPractitionerReader {
	reader := &stubPractitionerReader{practitioners: map[string]*models.Practitioner{}}
	for _, id := range ids {
		p := models.Practitioner{ID: id, FullName: "Dr " + id[:8], Active: true}
		reader.practitioners[id] = &p
		reader.active = append(reader.active, p)
	}
	return reader
}

func TestResolveEmitsDisjointDurationSlots(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "17:00")},
		},
		nil, nil,
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, slots, 8)

	for i, slot := range slots {
		wantStart := tuesday.Add(time.Duration(9+i) * time.Hour)
		assert.Equal(t, wantStart, slot.StartTime)
		assert.Equal(t, wantStart.Add(time.Hour), slot.EndTime)
		assert.Equal(t, []string{testPractitioner}, slot.PractitionerIDs)
	}
}

func TestResolveExcludesBookedTime(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "17:00")},
		},
		nil,
		map[string][]models.CalendarEntry{
			testPractitioner: {{
				AppointmentID:  "apt-1",
				PractitionerID: testPractitioner,
				StartTime:      tuesday.Add(10 * time.Hour),
				EndTime:        tuesday.Add(11 * time.Hour),
				Status:         models.StatusScheduled,
			}},
		},
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, slots, 7)
	for _, slot := range slots {
		assert.NotEqual(t, tuesday.Add(10*time.Hour), slot.StartTime)
	}
}

func TestResolveNeverOffersSlotOverSubMinuteBooking(t *testing.T) {
	booked := models.CalendarEntry{
		AppointmentID:  "apt-1",
		PractitionerID: testPractitioner,
		StartTime:      tuesday.Add(10*time.Hour + 15*time.Minute + 30*time.Second),
		EndTime:        tuesday.Add(10*time.Hour + 45*time.Minute + 30*time.Second),
		Status:         models.StatusScheduled,
	}
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "17:00")},
		},
		nil,
		map[string][]models.CalendarEntry{testPractitioner: {booked}},
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		overlaps := slot.StartTime.Before(booked.EndTime) && slot.EndTime.After(booked.StartTime)
		assert.False(t, overlaps, "slot %s-%s overlaps booking", slot.StartTime, slot.EndTime)
	}
	// The booked range rounds out to 10:15-10:46: two slots fit before it
	// and the next offer starts at 10:46, not 10:45.
	assert.Equal(t, tuesday.Add(10*time.Hour), slots[1].EndTime)
	assert.Equal(t, tuesday.Add(10*time.Hour+46*time.Minute), slots[2].StartTime)
}

func TestResolveFullDayExceptionWinsOverPattern(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "17:00")},
		},
		map[string][]models.AvailabilityException{
			testPractitioner: {{
				ID:     "exc-1",
				Date:   tuesday,
				Kind:   models.ExceptionHoliday,
				AllDay: true,
			}},
		},
		nil,
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveSubtractsPartialException(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "17:00")},
		},
		map[string][]models.AvailabilityException{
			testPractitioner: {{
				ID:        "exc-1",
				Date:      tuesday,
				Kind:      models.ExceptionBlocked,
				StartTime: strPtr("12:00"),
				EndTime:   strPtr("13:00"),
			}},
		},
		nil,
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, slots, 7)
	for _, slot := range slots {
		assert.NotEqual(t, tuesday.Add(12*time.Hour), slot.StartTime)
	}
}

func TestResolveRejectsWindowPastIntervalEnd(t *testing.T) {
	// 09:00-09:45 cannot host a 90 minute window; no truncated slot appears.
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "10:30")},
		},
		map[string][]models.AvailabilityException{
			testPractitioner: {{
				ID:        "exc-1",
				Date:      tuesday,
				Kind:      models.ExceptionBlocked,
				StartTime: strPtr("10:00"),
				EndTime:   strPtr("10:30"),
			}},
		},
		nil,
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 90,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveOrgWidePatternAddsToPersonal(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner: {
				weeklyPattern(strPtr(testPractitioner), "1", "09:00", "12:00"),
				weeklyPattern(nil, "1", "11:00", "14:00"),
			},
		},
		nil, nil,
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	// Union of 09:00-12:00 and 11:00-14:00 is 09:00-14:00.
	require.Len(t, slots, 5)
	assert.Equal(t, tuesday.Add(9*time.Hour), slots[0].StartTime)
	assert.Equal(t, tuesday.Add(13*time.Hour), slots[4].StartTime)
}

func TestResolveInvalidDuration(t *testing.T) {
	svc := newTestAvailabilityService(nil, nil, nil, activePractitioners(testPractitioner))

	for _, duration := range []int{0, -30, 45} {
		_, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
			PractitionerID:  testPractitioner,
			Date:            tuesday,
			DurationMinutes: duration,
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidDuration.Code, appErr.Code)
	}
}

func TestResolveNoPatternDayIsEmpty(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			// Wednesday pattern only; the requested date is a Tuesday.
			testPractitioner: {weeklyPattern(strPtr(testPractitioner), "2", "09:00", "17:00")},
		},
		nil, nil,
		activePractitioners(testPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveUnknownPractitioner(t *testing.T) {
	svc := newTestAvailabilityService(nil, nil, nil, activePractitioners(testPractitioner))

	_, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  "b2ce15d4-57f8-4f63-b33a-000000000000",
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveAnyPractitionerMergesSlots(t *testing.T) {
	svc := newTestAvailabilityService(
		map[string][]models.AvailabilityPattern{
			testPractitioner:  {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "11:00")},
			otherPractitioner: {weeklyPattern(strPtr(otherPractitioner), "1", "10:00", "12:00")},
		},
		nil, nil,
		activePractitioners(testPractitioner, otherPractitioner),
	)

	slots, _, err := svc.Resolve(context.Background(), dto.AvailabilityRequest{
		PractitionerID:  dto.AnyPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, tuesday.Add(9*time.Hour), slots[0].StartTime)
	assert.Equal(t, []string{testPractitioner}, slots[0].PractitionerIDs)

	assert.Equal(t, tuesday.Add(10*time.Hour), slots[1].StartTime)
	assert.Equal(t, []string{testPractitioner, otherPractitioner}, slots[1].PractitionerIDs)

	assert.Equal(t, tuesday.Add(11*time.Hour), slots[2].StartTime)
	assert.Equal(t, []string{otherPractitioner}, slots[2].PractitionerIDs)
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestResolveServesSecondCallFromCache(t *testing.T) {
	patternReader := &stubPatternReader{byPractitioner: map[string][]models.AvailabilityPattern{
		testPractitioner: {weeklyPattern(strPtr(testPractitioner), "1", "09:00", "17:00")},
	}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewAvailabilityService(
		patternReader,
		&stubExceptionReader{},
		&stubBookedReader{},
		activePractitioners(testPractitioner),
		cache,
		nil,
		30,
		zap.NewNop(),
	)
	req := dto.AvailabilityRequest{
		PractitionerID:  testPractitioner,
		Date:            tuesday,
		DurationMinutes: 60,
	}

	first, hit, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)

	// A pattern change without invalidation is not picked up; the cached
	// slot list is served as-is.
	patternReader.byPractitioner = nil
	second, hit, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, len(first), len(second))
}

func TestSubtractSpans(t *testing.T) {
	open := []minuteSpan{{start: 540, end: 1020}}
	closed := []minuteSpan{{start: 600, end: 660}, {start: 720, end: 780}}

	free := subtractSpans(open, closed)
	assert.Equal(t, []minuteSpan{
		{start: 540, end: 600},
		{start: 660, end: 720},
		{start: 780, end: 1020},
	}, free)
}

func TestUnionSpansMergesTouching(t *testing.T) {
	spans := unionSpans([]minuteSpan{
		{start: 540, end: 720},
		{start: 720, end: 840},
		{start: 900, end: 960},
	})
	assert.Equal(t, []minuteSpan{
		{start: 540, end: 840},
		{start: 900, end: 960},
	}, spans)
}

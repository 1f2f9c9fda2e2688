package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
)

type fakeCalendarSrv struct {
	entries    []models.CalendarEntry
	count      int
	err        error
	lastFilter models.CalendarFilter
	lastStart  time.Time
	lastEnd    time.Time
}

func (f *fakeCalendarSrv) Query(_ context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error) {
	f.lastFilter = filter
	return f.entries, f.err
}

func (f *fakeCalendarSrv) RebuildIndex(_ context.Context, startDate, endDate time.Time) (int, error) {
	f.lastStart = startDate
	f.lastEnd = endDate
	return f.count, f.err
}

func TestCalendarHandlerQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	service := &fakeCalendarSrv{entries: []models.CalendarEntry{{
		AppointmentID:  "apt-1",
		EntryDate:      day,
		PractitionerID: "p-1",
		PatientID:      "pt-1",
		Title:          "Checkup",
		StartTime:      day.Add(10 * time.Hour),
		EndTime:        day.Add(11 * time.Hour),
		Status:         models.StatusScheduled,
	}}}
	handler := NewCalendarHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/calendar?startDate=2026-03-02&endDate=2026-03-08&practitionerIds=p-1,p-2&statuses=scheduled", nil)

	handler.Query(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"p-1", "p-2"}, service.lastFilter.PractitionerIDs)
	assert.Equal(t, []models.AppointmentStatus{models.StatusScheduled}, service.lastFilter.Statuses)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var rows []dto.CalendarEventRow
	require.NoError(t, json.Unmarshal(envelope.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-03", rows[0].Date)
	assert.Equal(t, "scheduled", rows[0].Status)
}

func TestCalendarHandlerQueryRejectsBadDates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCalendarHandler(&fakeCalendarSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calendar?startDate=last-week&endDate=2026-03-08", nil)

	handler.Query(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarHandlerRebuild(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeCalendarSrv{count: 17}
	handler := NewCalendarHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/calendar-index/rebuild",
		strings.NewReader(`{"start_date":"2026-03-01","end_date":"2026-03-31"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.RebuildIndex(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), service.lastStart)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var payload map[string]int
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, 17, payload["reindexed_appointments"])
}

func TestCalendarHandlerRebuildRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCalendarHandler(&fakeCalendarSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/calendar-index/rebuild",
		strings.NewReader(`{"start_date":"March 1st"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.RebuildIndex(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

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
	"github.com/practicekit/scheduling-api/internal/middleware"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type fakeBookingSrv struct {
	appointment *models.Appointment
	check       *dto.ConflictCheck
	err         error
	lastUserID  string
	lastID      string
}

func (f *fakeBookingSrv) Get(_ context.Context, id string) (*models.Appointment, error) {
	f.lastID = id
	return f.appointment, f.err
}

func (f *fakeBookingSrv) Book(_ context.Context, userID string, _ dto.CreateAppointmentRequest) (*models.Appointment, error) {
	f.lastUserID = userID
	return f.appointment, f.err
}

func (f *fakeBookingSrv) Move(_ context.Context, id string, _ dto.MoveAppointmentRequest) (*models.Appointment, error) {
	f.lastID = id
	return f.appointment, f.err
}

func (f *fakeBookingSrv) Cancel(_ context.Context, id string) (*models.Appointment, error) {
	f.lastID = id
	return f.appointment, f.err
}

func (f *fakeBookingSrv) CheckConflict(_ context.Context, id string, _ dto.MoveAppointmentRequest) (*dto.ConflictCheck, error) {
	f.lastID = id
	return f.check, f.err
}

func testAppointment() *models.Appointment {
	start := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	return &models.Appointment{
		ID:              "apt-1",
		PractitionerID:  "p-1",
		PatientID:       "pt-1",
		Title:           "Checkup",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		Status:          models.StatusScheduled,
	}
}

func TestAppointmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeBookingSrv{appointment: testAppointment()}
	handler := NewAppointmentHandler(service)

	body := `{"practitioner_id":"p-1","patient_id":"pt-1","start_time":"2026-03-03T10:00:00Z","duration_minutes":60,"title":"Checkup"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleReception})

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "staff-1", service.lastUserID)
}

func TestAppointmentHandlerCreateWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAppointmentHandler(&fakeBookingSrv{appointment: testAppointment()})

	body := `{"practitioner_id":"p-1","patient_id":"pt-1","start_time":"2026-03-03T10:00:00Z","duration_minutes":60,"title":"Checkup"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppointmentHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAppointmentHandler(&fakeBookingSrv{err: appErrors.ErrConflict})

	body := `{"practitioner_id":"p-1","patient_id":"pt-1","start_time":"2026-03-03T10:00:00Z","duration_minutes":60,"title":"Checkup"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1"})

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrConflict.Code, envelope.Error.Code)
}

func TestAppointmentHandlerCreateBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAppointmentHandler(&fakeBookingSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentHandlerMove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeBookingSrv{appointment: testAppointment()}
	handler := NewAppointmentHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}
	c.Request = httptest.NewRequest(http.MethodPatch, "/appointments/apt-1/move", strings.NewReader(`{"start_time":"2026-03-03T14:00:00Z"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Move(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "apt-1", service.lastID)
}

func TestAppointmentHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeBookingSrv{appointment: testAppointment()}
	handler := NewAppointmentHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/appointments/apt-1/cancel", nil)

	handler.Cancel(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "apt-1", service.lastID)
}

func TestAppointmentHandlerCheckConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeBookingSrv{check: &dto.ConflictCheck{Conflict: true, Message: "requested time overlaps an existing appointment"}}
	handler := NewAppointmentHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/appointments/apt-1/check-conflict", strings.NewReader(`{"start_time":"2026-03-03T14:00:00Z"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.CheckConflict(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var check dto.ConflictCheck
	require.NoError(t, json.Unmarshal(envelope.Data, &check))
	assert.True(t, check.Conflict)
}

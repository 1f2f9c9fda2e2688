package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/response"
)

type bookingService interface {
	Get(ctx context.Context, id string) (*models.Appointment, error)
	Book(ctx context.Context, userID string, req dto.CreateAppointmentRequest) (*models.Appointment, error)
	Move(ctx context.Context, id string, req dto.MoveAppointmentRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, id string) (*models.Appointment, error)
	CheckConflict(ctx context.Context, id string, req dto.MoveAppointmentRequest) (*dto.ConflictCheck, error)
}

// AppointmentHandler exposes the booking endpoints.
type AppointmentHandler struct {
	service bookingService
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(service bookingService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// Get godoc
// @Summary Get appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Create godoc
// @Summary Book an appointment
// @Description Create a scheduled appointment; fails with 409 when the slot is taken
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAppointmentRequest true "Appointment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment)
}

// Move godoc
// @Summary Move an appointment
// @Description Relocate a scheduled appointment; on conflict the original slot is kept
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.MoveAppointmentRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/move [patch]
func (h *AppointmentHandler) Move(c *gin.Context) {
	var req dto.MoveAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	appointment, err := h.service.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appointment, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// CheckConflict godoc
// @Summary Check a candidate move for conflicts
// @Description Advisory pre-check; the booking transaction remains authoritative
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.MoveAppointmentRequest true "Candidate time"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/check-conflict [post]
func (h *AppointmentHandler) CheckConflict(c *gin.Context) {
	var req dto.MoveAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	check, err := h.service.CheckConflict(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/middleware"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/response"
)

type availabilityService interface {
	Resolve(ctx context.Context, req dto.AvailabilityRequest) ([]dto.AvailabilitySlot, bool, error)
}

// AvailabilityHandler exposes the slot resolution endpoint.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Resolve godoc
// @Summary Resolve bookable slots
// @Description Compute open, duration-sized slots for a practitioner and date
// @Tags Availability
// @Produce json
// @Param practitionerId query string true "Practitioner ID or 'any'"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param duration query int true "Appointment duration in minutes"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Resolve(c *gin.Context) {
	practitionerID := strings.TrimSpace(c.Query("practitionerId"))
	if practitionerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "practitionerId is required"))
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidDuration, "duration must be an integer number of minutes"))
		return
	}

	slots, cacheHit, err := h.service.Resolve(c.Request.Context(), dto.AvailabilityRequest{
		PractitionerID:  practitionerID,
		Date:            date.UTC(),
		DurationMinutes: duration,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}

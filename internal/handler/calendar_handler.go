package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/response"
)

type calendarService interface {
	Query(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error)
	RebuildIndex(ctx context.Context, startDate, endDate time.Time) (int, error)
}

// CalendarHandler exposes the calendar range query and the index rebuild.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Query godoc
// @Summary Query the calendar
// @Description Range query over the calendar index, filterable by practitioner and status
// @Tags Calendar
// @Produce json
// @Param startDate query string true "Range start (YYYY-MM-DD)"
// @Param endDate query string true "Range end (YYYY-MM-DD)"
// @Param practitionerIds query string false "Comma separated practitioner IDs"
// @Param statuses query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Query(c *gin.Context) {
	startDate, err := time.Parse("2006-01-02", c.Query("startDate"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD"))
		return
	}
	endDate, err := time.Parse("2006-01-02", c.Query("endDate"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD"))
		return
	}

	filter := models.CalendarFilter{StartDate: startDate.UTC(), EndDate: endDate.UTC()}
	if ids := c.Query("practitionerIds"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.PractitionerIDs = append(filter.PractitionerIDs, id)
			}
		}
	}
	if statuses := c.Query("statuses"); statuses != "" {
		for _, status := range strings.Split(statuses, ",") {
			if status = strings.TrimSpace(status); status != "" {
				filter.Statuses = append(filter.Statuses, models.AppointmentStatus(status))
			}
		}
	}

	entries, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	rows := make([]dto.CalendarEventRow, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		rows = append(rows, dto.CalendarEventRow{
			AppointmentID:   e.AppointmentID,
			Date:            e.EntryDate.Format("2006-01-02"),
			PractitionerID:  e.PractitionerID,
			PatientID:       e.PatientID,
			Title:           e.Title,
			AppointmentType: e.AppointmentType,
			StartTime:       e.StartTime.Format(time.RFC3339),
			EndTime:         e.EndTime.Format(time.RFC3339),
			Status:          string(e.Status),
		})
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// RebuildIndex godoc
// @Summary Rebuild the calendar index
// @Description Re-derives index rows from the appointment store; idempotent
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.RebuildIndexRequest true "Date range"
// @Success 200 {object} response.Envelope
// @Router /admin/calendar-index/rebuild [post]
func (h *CalendarHandler) RebuildIndex(c *gin.Context) {
	var req dto.RebuildIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD"))
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD"))
		return
	}

	count, err := h.service.RebuildIndex(c.Request.Context(), startDate.UTC(), endDate.UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reindexed_appointments": count}, nil)
}

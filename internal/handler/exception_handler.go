package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/response"
)

type exceptionService interface {
	List(ctx context.Context, filter models.ExceptionFilter) ([]models.AvailabilityException, error)
	Create(ctx context.Context, req dto.ExceptionRequest) (*models.AvailabilityException, error)
	Delete(ctx context.Context, id string) error
}

// ExceptionHandler exposes availability exception endpoints.
type ExceptionHandler struct {
	service exceptionService
}

// NewExceptionHandler constructs the handler.
func NewExceptionHandler(service exceptionService) *ExceptionHandler {
	return &ExceptionHandler{service: service}
}

// List godoc
// @Summary List availability exceptions
// @Tags Exceptions
// @Produce json
// @Param practitionerId query string false "Filter by practitioner"
// @Param includeOrgWide query bool false "Include organization-wide exceptions"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /exceptions [get]
func (h *ExceptionHandler) List(c *gin.Context) {
	var filter models.ExceptionFilter
	if practitionerID := c.Query("practitionerId"); practitionerID != "" {
		filter.PractitionerID = &practitionerID
	}
	if include := c.Query("includeOrgWide"); include != "" {
		if val, err := strconv.ParseBool(include); err == nil {
			filter.IncludeOrgWide = val
		}
	}
	if from := c.Query("from"); from != "" {
		val, err := time.Parse("2006-01-02", from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.From = &val
	}
	if to := c.Query("to"); to != "" {
		val, err := time.Parse("2006-01-02", to)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		filter.To = &val
	}

	exceptions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exceptions, nil)
}

// Create godoc
// @Summary Create availability exception
// @Tags Exceptions
// @Accept json
// @Produce json
// @Param payload body dto.ExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Router /exceptions [post]
func (h *ExceptionHandler) Create(c *gin.Context) {
	var req dto.ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exception, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exception)
}

// Delete godoc
// @Summary Delete availability exception
// @Description The day's availability reverts to its patterns
// @Tags Exceptions
// @Param id path string true "Exception ID"
// @Success 204
// @Router /exceptions/{id} [delete]
func (h *ExceptionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

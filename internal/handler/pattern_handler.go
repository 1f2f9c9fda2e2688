package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/response"
)

type patternService interface {
	List(ctx context.Context, filter models.PatternFilter) ([]models.AvailabilityPattern, error)
	Get(ctx context.Context, id string) (*models.AvailabilityPattern, error)
	Create(ctx context.Context, req dto.PatternRequest) (*models.AvailabilityPattern, error)
	Update(ctx context.Context, id string, req dto.PatternRequest) (*models.AvailabilityPattern, error)
	Deactivate(ctx context.Context, id string) error
}

// PatternHandler exposes availability pattern management endpoints.
type PatternHandler struct {
	service patternService
}

// NewPatternHandler constructs the handler.
func NewPatternHandler(service patternService) *PatternHandler {
	return &PatternHandler{service: service}
}

// List godoc
// @Summary List availability patterns
// @Tags Patterns
// @Produce json
// @Param practitionerId query string false "Filter by practitioner"
// @Param includeOrgWide query bool false "Include organization-wide patterns"
// @Param activeOnly query bool false "Only active patterns"
// @Success 200 {object} response.Envelope
// @Router /patterns [get]
func (h *PatternHandler) List(c *gin.Context) {
	var filter models.PatternFilter
	if practitionerID := c.Query("practitionerId"); practitionerID != "" {
		filter.PractitionerID = &practitionerID
	}
	if include := c.Query("includeOrgWide"); include != "" {
		if val, err := strconv.ParseBool(include); err == nil {
			filter.IncludeOrgWide = val
		}
	}
	if activeOnly := c.Query("activeOnly"); activeOnly != "" {
		if val, err := strconv.ParseBool(activeOnly); err == nil {
			filter.ActiveOnly = val
		}
	}

	patterns, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patterns, nil)
}

// Get godoc
// @Summary Get availability pattern
// @Tags Patterns
// @Produce json
// @Param id path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Router /patterns/{id} [get]
func (h *PatternHandler) Get(c *gin.Context) {
	pattern, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// Create godoc
// @Summary Create availability pattern
// @Tags Patterns
// @Accept json
// @Produce json
// @Param payload body dto.PatternRequest true "Pattern payload"
// @Success 201 {object} response.Envelope
// @Router /patterns [post]
func (h *PatternHandler) Create(c *gin.Context) {
	var req dto.PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pattern, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

// Update godoc
// @Summary Update availability pattern
// @Tags Patterns
// @Accept json
// @Produce json
// @Param id path string true "Pattern ID"
// @Param payload body dto.PatternRequest true "Pattern payload"
// @Success 200 {object} response.Envelope
// @Router /patterns/{id} [put]
func (h *PatternHandler) Update(c *gin.Context) {
	var req dto.PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pattern, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// Deactivate godoc
// @Summary Deactivate availability pattern
// @Description Soft-disables the pattern; resolution stops considering it
// @Tags Patterns
// @Param id path string true "Pattern ID"
// @Success 204
// @Router /patterns/{id} [delete]
func (h *PatternHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

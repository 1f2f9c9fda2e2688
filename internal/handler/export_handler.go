package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/response"
)

type exportService interface {
	DaySheet(ctx context.Context, practitionerID string, date time.Time, format string) ([]byte, string, string, error)
}

// ExportHandler serves day sheet downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// DaySheet godoc
// @Summary Export a practitioner day sheet
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param practitionerId query string true "Practitioner ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /export/day-sheet [get]
func (h *ExportHandler) DaySheet(c *gin.Context) {
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
	format := c.DefaultQuery("format", "csv")

	data, contentType, fileName, err := h.service.DaySheet(c.Request.Context(), practitionerID, date.UTC(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, contentType, data)
}

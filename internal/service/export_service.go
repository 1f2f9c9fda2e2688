package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
	"github.com/practicekit/scheduling-api/pkg/export"
)

// Export formats for the day sheet.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var daySheetHeaders = []string{"Start", "End", "Patient", "Title", "Type", "Status"}

type daySheetReader interface {
	EntriesForPractitionerDate(ctx context.Context, practitionerID string, date time.Time) ([]models.CalendarEntry, error)
}

type patientNameReader interface {
	FindByID(ctx context.Context, id string) (*models.Patient, error)
}

// ExportService renders a practitioner's day sheet (the printed schedule
// for one working day) as CSV or PDF.
type ExportService struct {
	entries       daySheetReader
	practitioners practitionerFinder
	patients      patientNameReader
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	logger        *zap.Logger
}

// NewExportService constructs the day sheet exporter.
func NewExportService(entries daySheetReader, practitioners practitionerFinder, patients patientNameReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		entries:       entries,
		practitioners: practitioners,
		patients:      patients,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		logger:        logger,
	}
}

// DaySheet renders the schedule for one practitioner and date. It returns
// the file bytes, the content type and a suggested file name.
func (s *ExportService) DaySheet(ctx context.Context, practitionerID string, date time.Time, format string) ([]byte, string, string, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	practitioner, err := s.practitioners.FindByID(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unknown practitioner")
		}
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load practitioner")
	}

	entries, err := s.entries.EntriesForPractitionerDate(ctx, practitionerID, date)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load day sheet entries")
	}

	dataset := export.Dataset{Headers: daySheetHeaders}
	for i := range entries {
		e := &entries[i]
		appointmentType := ""
		if e.AppointmentType != nil {
			appointmentType = *e.AppointmentType
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Start":   e.StartTime.Format("15:04"),
			"End":     e.EndTime.Format("15:04"),
			"Patient": s.patientName(ctx, e.PatientID),
			"Title":   e.Title,
			"Type":    appointmentType,
			"Status":  string(e.Status),
		})
	}

	day := date.Format("2006-01-02")
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv rendering failed")
		}
		return data, "text/csv", fmt.Sprintf("day-sheet-%s.csv", day), nil
	default:
		title := fmt.Sprintf("Day sheet %s - %s", day, practitioner.FullName)
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf rendering failed")
		}
		return data, "application/pdf", fmt.Sprintf("day-sheet-%s.pdf", day), nil
	}
}

// patientName degrades to the raw id when the patient record is missing;
// the day sheet should still print.
func (s *ExportService) patientName(ctx context.Context, patientID string) string {
	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("patient lookup failed during export", zap.String("patient_id", patientID), zap.Error(err))
		}
		return patientID
	}
	return patient.FullName
}

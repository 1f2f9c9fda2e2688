package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type calendarStore interface {
	QueryRange(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error)
	Rebuild(ctx context.Context, startDate, endDate time.Time) (int, error)
}

// CalendarService serves range queries from the calendar index and owns the
// index rebuild used after bulk imports or suspected drift.
type CalendarService struct {
	calendar     calendarStore
	maxRangeDays int
	logger       *zap.Logger
}

// NewCalendarService constructs the calendar query service.
func NewCalendarService(calendar calendarStore, maxRangeDays int, logger *zap.Logger) *CalendarService {
	if maxRangeDays <= 0 {
		maxRangeDays = 93
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{calendar: calendar, maxRangeDays: maxRangeDays, logger: logger}
}

// Query returns calendar entries for the filter, ordered by date then start
// time. The date range is capped to keep index scans bounded.
func (s *CalendarService) Query(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEntry, error) {
	if err := s.validateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	for _, status := range filter.Statuses {
		switch status {
		case models.StatusScheduled, models.StatusCancelled, models.StatusCompleted:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
		}
	}

	entries, err := s.calendar.QueryRange(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to query calendar")
	}
	return entries, nil
}

// RebuildIndex re-derives the calendar index from the appointment store for
// the date range and returns the number of appointments reindexed. The
// rebuild is idempotent and safe to re-run.
func (s *CalendarService) RebuildIndex(ctx context.Context, startDate, endDate time.Time) (int, error) {
	if err := s.validateRange(startDate, endDate); err != nil {
		return 0, err
	}

	started := time.Now()
	count, err := s.calendar.Rebuild(ctx, startDate, endDate)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "calendar index rebuild failed")
	}

	s.logger.Info("calendar index rebuilt",
		zap.Time("start_date", startDate),
		zap.Time("end_date", endDate),
		zap.Int("appointments", count),
		zap.Duration("took", time.Since(started)),
	)
	return count, nil
}

func (s *CalendarService) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "start and end dates are required")
	}
	if end.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	if int(end.Sub(start).Hours()/24) > s.maxRangeDays {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("date range must not exceed %d days", s.maxRangeDays))
	}
	return nil
}

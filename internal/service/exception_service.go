package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type exceptionStore interface {
	List(ctx context.Context, filter models.ExceptionFilter) ([]models.AvailabilityException, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityException, error)
	Create(ctx context.Context, exception *models.AvailabilityException) error
	Delete(ctx context.Context, id string) error
}

// ExceptionService manages date-specific availability overrides (blocked
// time, holidays, vacation).
type ExceptionService struct {
	exceptions    exceptionStore
	practitioners practitionerFinder
	cache         *CacheService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewExceptionService constructs the exception management service.
func NewExceptionService(exceptions exceptionStore, practitioners practitionerFinder, cache *CacheService, logger *zap.Logger) *ExceptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExceptionService{exceptions: exceptions, practitioners: practitioners, cache: cache, validate: validator.New(), logger: logger}
}

// List returns exceptions matching the filter.
func (s *ExceptionService) List(ctx context.Context, filter models.ExceptionFilter) ([]models.AvailabilityException, error) {
	exceptions, err := s.exceptions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list exceptions")
	}
	return exceptions, nil
}

// Create stores a new exception. All-day exceptions carry no time range; a
// partial exception requires a valid one.
func (s *ExceptionService) Create(ctx context.Context, req dto.ExceptionRequest) (*models.AvailabilityException, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	kind := models.ExceptionKind(req.Kind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exception kind")
	}

	date, err := parseDatePtr(&req.Date)
	if err != nil || date == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	allDay := true
	if req.AllDay != nil {
		allDay = *req.AllDay
	}

	exception := &models.AvailabilityException{
		ID:             uuid.NewString(),
		PractitionerID: req.PractitionerID,
		Date:           *date,
		Kind:           kind,
		AllDay:         allDay,
		Reason:         req.Reason,
	}

	if allDay {
		if req.StartTime != nil || req.EndTime != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "all-day exceptions must not carry a time range")
		}
	} else {
		if req.StartTime == nil || req.EndTime == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "partial exceptions require start_time and end_time")
		}
		start, okStart := models.ClockMinutes(*req.StartTime)
		end, okEnd := models.ClockMinutes(*req.EndTime)
		if !okStart || !okEnd {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time must be HH:MM")
		}
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
		}
		exception.StartTime = req.StartTime
		exception.EndTime = req.EndTime
	}

	if req.PractitionerID != nil {
		if _, err := s.practitioners.FindByID(ctx, *req.PractitionerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown practitioner")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load practitioner")
		}
	}

	if err := s.exceptions.Create(ctx, exception); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create exception")
	}
	s.invalidate(ctx, exception.PractitionerID)
	return exception, nil
}

// Delete removes an exception; the day's availability reverts to its
// patterns.
func (s *ExceptionService) Delete(ctx context.Context, id string) error {
	existing, err := s.exceptions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exception not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load exception")
	}
	if err := s.exceptions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete exception")
	}
	s.invalidate(ctx, existing.PractitionerID)
	return nil
}

func (s *ExceptionService) invalidate(ctx context.Context, practitionerID *string) {
	pattern := "availability:*"
	if practitionerID != nil {
		pattern = "availability:" + *practitionerID + ":*"
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

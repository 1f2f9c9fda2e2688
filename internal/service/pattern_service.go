package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type patternStore interface {
	List(ctx context.Context, filter models.PatternFilter) ([]models.AvailabilityPattern, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityPattern, error)
	Create(ctx context.Context, pattern *models.AvailabilityPattern) error
	Update(ctx context.Context, pattern *models.AvailabilityPattern) error
	Deactivate(ctx context.Context, id string) error
}

// PatternService manages recurring availability patterns. Every mutation
// invalidates cached availability for the affected practitioner (or all
// practitioners for organization-wide patterns).
type PatternService struct {
	patterns      patternStore
	practitioners practitionerFinder
	cache         *CacheService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewPatternService constructs the pattern management service.
func NewPatternService(patterns patternStore, practitioners practitionerFinder, cache *CacheService, logger *zap.Logger) *PatternService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatternService{patterns: patterns, practitioners: practitioners, cache: cache, validate: validator.New(), logger: logger}
}

// List returns patterns matching the filter.
func (s *PatternService) List(ctx context.Context, filter models.PatternFilter) ([]models.AvailabilityPattern, error) {
	patterns, err := s.patterns.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list patterns")
	}
	return patterns, nil
}

// Get loads one pattern by id.
func (s *PatternService) Get(ctx context.Context, id string) (*models.AvailabilityPattern, error) {
	pattern, err := s.patterns.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load pattern")
	}
	return pattern, nil
}

// Create stores a new pattern.
func (s *PatternService) Create(ctx context.Context, req dto.PatternRequest) (*models.AvailabilityPattern, error) {
	pattern, err := s.fromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	pattern.ID = uuid.NewString()

	if err := s.patterns.Create(ctx, pattern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create pattern")
	}
	s.invalidate(ctx, pattern.PractitionerID)
	return pattern, nil
}

// Update replaces an existing pattern's definition.
func (s *PatternService) Update(ctx context.Context, id string, req dto.PatternRequest) (*models.AvailabilityPattern, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pattern, err := s.fromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	pattern.ID = existing.ID
	pattern.CreatedAt = existing.CreatedAt

	if err := s.patterns.Update(ctx, pattern); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update pattern")
	}

	// The pattern may have changed owner; drop cache for both.
	s.invalidate(ctx, existing.PractitionerID)
	s.invalidate(ctx, pattern.PractitionerID)
	return pattern, nil
}

// Deactivate soft-disables a pattern. History referencing it stays intact;
// resolution simply stops considering it.
func (s *PatternService) Deactivate(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.patterns.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to deactivate pattern")
	}
	s.invalidate(ctx, existing.PractitionerID)
	return nil
}

func (s *PatternService) fromRequest(ctx context.Context, req dto.PatternRequest) (*models.AvailabilityPattern, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, okStart := models.ClockMinutes(req.StartTime)
	end, okEnd := models.ClockMinutes(req.EndTime)
	if !okStart || !okEnd {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time must be HH:MM")
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	frequency := models.PatternFrequency(req.Frequency)
	if (frequency == models.FrequencyWeekly || frequency == models.FrequencyCustom) && req.Weekdays == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weekdays are required for weekly and custom patterns")
	}

	if req.PractitionerID != nil {
		if _, err := s.practitioners.FindByID(ctx, *req.PractitionerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown practitioner")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load practitioner")
		}
	}

	validFrom, err := parseDatePtr(req.ValidFrom)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "valid_from must be YYYY-MM-DD")
	}
	validUntil, err := parseDatePtr(req.ValidUntil)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "valid_until must be YYYY-MM-DD")
	}
	if validFrom != nil && validUntil != nil && validUntil.Before(*validFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "valid_until must not precede valid_from")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return &models.AvailabilityPattern{
		PractitionerID: req.PractitionerID,
		Title:          req.Title,
		Frequency:      frequency,
		Weekdays:       req.Weekdays,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		Active:         active,
	}, nil
}

// invalidate clears cached availability affected by a pattern change. An
// organization-wide pattern touches everyone, so the whole availability
// namespace goes.
func (s *PatternService) invalidate(ctx context.Context, practitionerID *string) {
	pattern := "availability:*"
	if practitionerID != nil {
		pattern = "availability:" + *practitionerID + ":*"
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

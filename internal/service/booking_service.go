package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type appointmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	FindOverlap(ctx context.Context, practitionerID string, start, end time.Time, excludeID string) (*models.Appointment, error)
	CreateScheduled(ctx context.Context, appointment *models.Appointment) error
	Reschedule(ctx context.Context, id string, start, end time.Time, durationMinutes int) (*models.Appointment, error)
	Cancel(ctx context.Context, id string) error
}

type practitionerFinder interface {
	FindByID(ctx context.Context, id string) (*models.Practitioner, error)
}

type patientFinder interface {
	FindByID(ctx context.Context, id string) (*models.Patient, error)
}

type bookingEventPublisher interface {
	PublishCreated(a *models.Appointment)
	PublishMoved(a *models.Appointment, prevStart, prevEnd time.Time)
	PublishCancelled(a *models.Appointment)
}

// BookingService is the single write path for appointments. All state
// transitions go through the appointment store's transactional operations,
// which serialize bookings per practitioner; this layer adds input
// validation, error mapping, event publication and cache invalidation.
type BookingService struct {
	appointments  appointmentStore
	practitioners practitionerFinder
	patients      patientFinder
	events        bookingEventPublisher
	cache         *CacheService
	metrics       *MetricsService
	validate      *validator.Validate
	stepMinutes   int
	logger        *zap.Logger
	now           func() time.Time
}

// NewBookingService constructs the booking coordinator.
func NewBookingService(
	appointments appointmentStore,
	practitioners practitionerFinder,
	patients patientFinder,
	events bookingEventPublisher,
	cache *CacheService,
	metrics *MetricsService,
	stepMinutes int,
	logger *zap.Logger,
) *BookingService {
	if stepMinutes <= 0 {
		stepMinutes = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		appointments:  appointments,
		practitioners: practitioners,
		patients:      patients,
		events:        events,
		cache:         cache,
		metrics:       metrics,
		validate:      validator.New(),
		stepMinutes:   stepMinutes,
		logger:        logger,
		now:           time.Now,
	}
}

// Get loads one appointment by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load appointment")
	}
	return appointment, nil
}

// Book creates a scheduled appointment. On overlap the request fails with a
// conflict error carrying the blocking range; no partial state is left
// behind because creation and index maintenance share one transaction.
func (s *BookingService) Book(ctx context.Context, userID string, req dto.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, err := s.parseStart(req.StartTime)
	if err != nil {
		return nil, err
	}
	if err := s.validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}

	practitioner, err := s.practitioners.FindByID(ctx, req.PractitionerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown practitioner")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load practitioner")
	}
	if !practitioner.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "practitioner is not active")
	}
	if _, err := s.patients.FindByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown patient")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load patient")
	}

	appointment := &models.Appointment{
		ID:              uuid.NewString(),
		PractitionerID:  req.PractitionerID,
		PatientID:       req.PatientID,
		CreatedBy:       userID,
		Title:           req.Title,
		AppointmentType: req.AppointmentType,
		Location:        req.Location,
		Notes:           req.Notes,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(req.DurationMinutes) * time.Minute),
		DurationMinutes: req.DurationMinutes,
		Status:          models.StatusScheduled,
	}

	if err := s.appointments.CreateScheduled(ctx, appointment); err != nil {
		s.recordBooking("create", err)
		return nil, s.mapBookingError(err, "failed to create appointment")
	}
	s.recordBooking("create", nil)

	s.afterCommit(ctx, appointment.PractitionerID)
	if s.events != nil {
		s.events.PublishCreated(appointment)
	}
	return appointment, nil
}

// Move relocates a scheduled appointment to a new start time, optionally
// changing its duration. On conflict the appointment keeps its original
// slot.
func (s *BookingService) Move(ctx context.Context, id string, req dto.MoveAppointmentRequest) (*models.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, err := s.parseStart(req.StartTime)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.StatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only scheduled appointments can be moved")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = existing.DurationMinutes
	}
	if err := s.validateDuration(duration); err != nil {
		return nil, err
	}

	end := start.Add(time.Duration(duration) * time.Minute)
	updated, err := s.appointments.Reschedule(ctx, id, start, end, duration)
	if err != nil {
		s.recordBooking("move", err)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, s.mapBookingError(err, "failed to move appointment")
	}
	s.recordBooking("move", nil)

	s.afterCommit(ctx, updated.PractitionerID)
	if s.events != nil {
		s.events.PublishMoved(updated, existing.StartTime, existing.EndTime)
	}
	return updated, nil
}

// Cancel marks a scheduled appointment cancelled. The slot becomes bookable
// again immediately; the history row is kept.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Appointment, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.StatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment is not scheduled")
	}

	if err := s.appointments.Cancel(ctx, id); err != nil {
		s.recordBooking("cancel", err)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to cancel appointment")
	}
	s.recordBooking("cancel", nil)

	existing.Status = models.StatusCancelled
	s.afterCommit(ctx, existing.PractitionerID)
	if s.events != nil {
		s.events.PublishCancelled(existing)
	}
	return existing, nil
}

// CheckConflict is an advisory lock-free probe ahead of a drag-and-drop
// move. A clear result can still lose to a concurrent booking; the
// authoritative answer is the Move transaction itself.
func (s *BookingService) CheckConflict(ctx context.Context, id string, req dto.MoveAppointmentRequest) (*dto.ConflictCheck, error) {
	start, err := s.parseStart(req.StartTime)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = existing.DurationMinutes
	}
	if err := s.validateDuration(duration); err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	blocking, err := s.appointments.FindOverlap(ctx, existing.PractitionerID, start, end, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to check conflicts")
	}
	if blocking == nil {
		return &dto.ConflictCheck{Conflict: false}, nil
	}
	return &dto.ConflictCheck{
		Conflict:  true,
		Message:   "requested time overlaps an existing appointment",
		StartTime: &blocking.StartTime,
		EndTime:   &blocking.EndTime,
	}, nil
}

func (s *BookingService) parseStart(raw string) (time.Time, error) {
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_time must be RFC 3339")
	}
	start = start.UTC()
	if start.Before(s.now().UTC()) {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_time is in the past")
	}
	return start, nil
}

func (s *BookingService) validateDuration(durationMinutes int) error {
	if durationMinutes <= 0 {
		return appErrors.ErrInvalidDuration
	}
	if durationMinutes%s.stepMinutes != 0 {
		return appErrors.Clone(appErrors.ErrInvalidDuration,
			fmt.Sprintf("duration must be a multiple of %d minutes", s.stepMinutes))
	}
	return nil
}

// mapBookingError converts store errors into API errors, preserving the
// blocking range for conflicts.
func (s *BookingService) mapBookingError(err error, message string) error {
	var conflict *models.BookingConflictError
	if errors.As(err, &conflict) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf(
			"requested time overlaps appointment from %s to %s",
			conflict.StartTime.Format(time.RFC3339),
			conflict.EndTime.Format(time.RFC3339),
		))
	}
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}

// afterCommit drops cached availability for the practitioner. Cache loss is
// tolerable; a stale entry only produces a spurious conflict on booking.
func (s *BookingService) afterCommit(ctx context.Context, practitionerID string) {
	if err := s.cache.Invalidate(ctx, "availability:"+practitionerID+":*"); err != nil {
		s.logger.Warn("availability cache invalidation failed",
			zap.String("practitioner_id", practitionerID),
			zap.Error(err),
		)
	}
}

func (s *BookingService) recordBooking(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		var conflict *models.BookingConflictError
		if errors.As(err, &conflict) {
			outcome = "conflict"
		}
	}
	s.metrics.RecordBooking(operation, outcome)
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/models"
	"github.com/practicekit/scheduling-api/pkg/jobs"
)

// Appointment event types published after a booking transaction commits.
const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentMoved     = "appointment.moved"
	EventAppointmentCancelled = "appointment.cancelled"
)

// AppointmentEvent is the payload delivered to event consumers. For moves it
// carries the previous time range so reminder systems can reconcile.
type AppointmentEvent struct {
	Type           string     `json:"type"`
	AppointmentID  string     `json:"appointment_id"`
	PractitionerID string     `json:"practitioner_id"`
	PatientID      string     `json:"patient_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	PrevStartTime  *time.Time `json:"prev_start_time,omitempty"`
	PrevEndTime    *time.Time `json:"prev_end_time,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// EventConsumer receives appointment lifecycle events. Consumers run on the
// queue's worker goroutines after the booking transaction has committed, so
// a failing consumer never rolls back a booking.
type EventConsumer interface {
	HandleAppointmentEvent(ctx context.Context, event AppointmentEvent) error
}

// EventService fans appointment events out to registered consumers through
// an in-memory worker queue. Delivery is at-least-once with bounded retries;
// consumers are expected to tolerate duplicates.
type EventService struct {
	queue     *jobs.Queue
	consumers []EventConsumer
	logger    *zap.Logger
}

// NewEventService builds the dispatcher. Register consumers before calling
// Start.
func NewEventService(cfg jobs.QueueConfig, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EventService{logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("appointment-events", s.dispatch, cfg)
	return s
}

// Register adds a consumer. Not safe to call after Start.
func (s *EventService) Register(consumer EventConsumer) {
	s.consumers = append(s.consumers, consumer)
}

// Start launches the worker pool.
func (s *EventService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and waits for in-flight deliveries.
func (s *EventService) Stop() {
	s.queue.Stop()
}

// Publish enqueues one event for asynchronous delivery. Publish is called
// after commit; when the queue is saturated the event is dropped with a log
// line rather than blocking the request path.
func (s *EventService) Publish(event AppointmentEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    event.Type,
		Payload: event,
	})
	if err != nil {
		s.logger.Error("appointment event dropped",
			zap.String("type", event.Type),
			zap.String("appointment_id", event.AppointmentID),
			zap.Error(err),
		)
	}
}

// PublishCreated emits an appointment.created event.
func (s *EventService) PublishCreated(a *models.Appointment) {
	s.Publish(AppointmentEvent{
		Type:           EventAppointmentCreated,
		AppointmentID:  a.ID,
		PractitionerID: a.PractitionerID,
		PatientID:      a.PatientID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
	})
}

// PublishMoved emits an appointment.moved event with the prior range.
func (s *EventService) PublishMoved(a *models.Appointment, prevStart, prevEnd time.Time) {
	s.Publish(AppointmentEvent{
		Type:           EventAppointmentMoved,
		AppointmentID:  a.ID,
		PractitionerID: a.PractitionerID,
		PatientID:      a.PatientID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		PrevStartTime:  &prevStart,
		PrevEndTime:    &prevEnd,
	})
}

// PublishCancelled emits an appointment.cancelled event.
func (s *EventService) PublishCancelled(a *models.Appointment) {
	s.Publish(AppointmentEvent{
		Type:           EventAppointmentCancelled,
		AppointmentID:  a.ID,
		PractitionerID: a.PractitionerID,
		PatientID:      a.PatientID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
	})
}

// LoggingConsumer writes one structured log line per appointment event. It
// is the default consumer wired in the server; downstream integrations
// register alongside it.
type LoggingConsumer struct {
	logger *zap.Logger
}

// NewLoggingConsumer constructs the consumer.
func NewLoggingConsumer(logger *zap.Logger) *LoggingConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingConsumer{logger: logger}
}

// HandleAppointmentEvent implements EventConsumer.
func (c *LoggingConsumer) HandleAppointmentEvent(_ context.Context, event AppointmentEvent) error {
	c.logger.Info("appointment event",
		zap.String("type", event.Type),
		zap.String("appointment_id", event.AppointmentID),
		zap.String("practitioner_id", event.PractitionerID),
		zap.Time("start_time", event.StartTime),
		zap.Time("end_time", event.EndTime),
	)
	return nil
}

func (s *EventService) dispatch(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(AppointmentEvent)
	if !ok {
		s.logger.Error("unexpected event payload", zap.String("job_id", job.ID))
		return nil
	}
	for _, consumer := range s.consumers {
		if err := consumer.HandleAppointmentEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/practicekit/scheduling-api/internal/dto"
	"github.com/practicekit/scheduling-api/internal/models"
	appErrors "github.com/practicekit/scheduling-api/pkg/errors"
)

type availabilityPatternReader interface {
	ListForResolution(ctx context.Context, practitionerID string) ([]models.AvailabilityPattern, error)
}

type availabilityExceptionReader interface {
	ListForDate(ctx context.Context, practitionerID string, date time.Time) ([]models.AvailabilityException, error)
}

type bookedEntryReader interface {
	EntriesForPractitionerDate(ctx context.Context, practitionerID string, date time.Time) ([]models.CalendarEntry, error)
}

type practitionerReader interface {
	FindByID(ctx context.Context, id string) (*models.Practitioner, error)
	ListActive(ctx context.Context) ([]models.Practitioner, error)
}

// AvailabilityService resolves bookable slots by merging recurring patterns,
// date-specific exceptions and already-booked time. Resolution itself is a
// pure function of the fetched inputs; this service only assembles them.
type AvailabilityService struct {
	patterns      availabilityPatternReader
	exceptions    availabilityExceptionReader
	booked        bookedEntryReader
	practitioners practitionerReader
	cache         *CacheService
	metrics       *MetricsService
	stepMinutes   int
	logger        *zap.Logger
}

// NewAvailabilityService constructs the resolver service.
func NewAvailabilityService(
	patterns availabilityPatternReader,
	exceptions availabilityExceptionReader,
	booked bookedEntryReader,
	practitioners practitionerReader,
	cache *CacheService,
	metrics *MetricsService,
	stepMinutes int,
	logger *zap.Logger,
) *AvailabilityService {
	if stepMinutes <= 0 {
		stepMinutes = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		patterns:      patterns,
		exceptions:    exceptions,
		booked:        booked,
		practitioners: practitioners,
		cache:         cache,
		metrics:       metrics,
		stepMinutes:   stepMinutes,
		logger:        logger,
	}
}

// Resolve returns the ordered, disjoint, duration-sized bookable slots for
// the request plus whether the answer came from cache. In any-practitioner
// mode the per-practitioner results are merged and each slot is tagged with
// everyone able to serve it.
func (s *AvailabilityService) Resolve(ctx context.Context, req dto.AvailabilityRequest) ([]dto.AvailabilitySlot, bool, error) {
	if req.DurationMinutes <= 0 {
		return nil, false, appErrors.ErrInvalidDuration
	}
	if req.DurationMinutes%s.stepMinutes != 0 {
		return nil, false, appErrors.Clone(appErrors.ErrInvalidDuration,
			fmt.Sprintf("duration must be a multiple of %d minutes", s.stepMinutes))
	}

	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveResolve(time.Since(started))
		}
	}()

	if req.PractitionerID == dto.AnyPractitioner {
		slots, err := s.resolveAny(ctx, req)
		return slots, false, err
	}

	cacheKey := availabilityCacheKey(req.PractitionerID, req.Date, req.DurationMinutes)
	var cached []dto.AvailabilitySlot
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, true, nil
	}

	practitioner, err := s.practitioners.FindByID(ctx, req.PractitionerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown practitioner")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load practitioner")
	}
	if !practitioner.Active {
		return []dto.AvailabilitySlot{}, false, nil
	}

	slots, err := s.resolveOne(ctx, req.PractitionerID, req.Date, req.DurationMinutes)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Set(ctx, cacheKey, slots, 0); err != nil {
		s.logger.Debug("availability cache write skipped", zap.Error(err))
	}
	return slots, false, nil
}

func (s *AvailabilityService) resolveAny(ctx context.Context, req dto.AvailabilityRequest) ([]dto.AvailabilitySlot, error) {
	practitioners, err := s.practitioners.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list practitioners")
	}

	merged := make(map[int64]*dto.AvailabilitySlot)
	for _, p := range practitioners {
		slots, err := s.resolveOne(ctx, p.ID, req.Date, req.DurationMinutes)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			key := slot.StartTime.Unix()
			if existing, ok := merged[key]; ok {
				existing.PractitionerIDs = append(existing.PractitionerIDs, p.ID)
				continue
			}
			copied := slot
			merged[key] = &copied
		}
	}

	result := make([]dto.AvailabilitySlot, 0, len(merged))
	for _, slot := range merged {
		sort.Strings(slot.PractitionerIDs)
		result = append(result, *slot)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

// resolveOne fetches the three input sets and runs the pure per-day
// resolution. Any store error fails the whole resolution; a partial slot
// list is never returned.
func (s *AvailabilityService) resolveOne(ctx context.Context, practitionerID string, date time.Time, durationMinutes int) ([]dto.AvailabilitySlot, error) {
	patterns, err := s.patterns.ListForResolution(ctx, practitionerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load availability patterns")
	}
	exceptions, err := s.exceptions.ListForDate(ctx, practitionerID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load availability exceptions")
	}
	entries, err := s.booked.EntriesForPractitionerDate(ctx, practitionerID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load booked time")
	}

	day := dayStart(date)
	spans := resolveDay(day, durationMinutes, patterns, exceptions, bookedSpans(day, entries))

	slots := make([]dto.AvailabilitySlot, 0, len(spans))
	for _, span := range spans {
		slots = append(slots, dto.AvailabilitySlot{
			StartTime:       day.Add(time.Duration(span.start) * time.Minute),
			EndTime:         day.Add(time.Duration(span.end) * time.Minute),
			PractitionerIDs: []string{practitionerID},
		})
	}
	return slots, nil
}

// minuteSpan is a half-open [start, end) interval in minutes from midnight.
type minuteSpan struct {
	start int
	end   int
}

// resolveDay is the pure resolution core: union the applicable pattern
// intervals, drop everything when a full-day exception applies, subtract
// partial exceptions and booked time, then carve duration-sized slots.
// Organization-wide closures are indistinguishable from personal ones here
// because the input set already contains both; precedence is purely "any
// full-day exception wins".
func resolveDay(day time.Time, durationMinutes int, patterns []models.AvailabilityPattern, exceptions []models.AvailabilityException, booked []minuteSpan) []minuteSpan {
	for i := range exceptions {
		if exceptions[i].AllDay {
			return nil
		}
	}

	var open []minuteSpan
	for i := range patterns {
		p := &patterns[i]
		if !p.AppliesTo(day) {
			continue
		}
		start, okStart := models.ClockMinutes(p.StartTime)
		end, okEnd := models.ClockMinutes(p.EndTime)
		if !okStart || !okEnd || start >= end {
			continue
		}
		open = append(open, minuteSpan{start: start, end: end})
	}
	if len(open) == 0 {
		return nil
	}
	open = unionSpans(open)

	closed := make([]minuteSpan, 0, len(exceptions)+len(booked))
	for i := range exceptions {
		ex := &exceptions[i]
		if ex.StartTime == nil || ex.EndTime == nil {
			continue
		}
		start, okStart := models.ClockMinutes(*ex.StartTime)
		end, okEnd := models.ClockMinutes(*ex.EndTime)
		if !okStart || !okEnd || start >= end {
			continue
		}
		closed = append(closed, minuteSpan{start: start, end: end})
	}
	closed = append(closed, booked...)

	free := subtractSpans(open, unionSpans(closed))

	// Slots never extend past the end of their interval and never straddle
	// two intervals; a window that does not fit is rejected, not truncated.
	var slots []minuteSpan
	for _, span := range free {
		for pos := span.start; pos+durationMinutes <= span.end; pos += durationMinutes {
			slots = append(slots, minuteSpan{start: pos, end: pos + durationMinutes})
		}
	}
	return slots
}

// unionSpans merges overlapping or touching spans into a sorted disjoint set.
func unionSpans(spans []minuteSpan) []minuteSpan {
	if len(spans) <= 1 {
		return spans
	}
	sorted := make([]minuteSpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	merged := []minuteSpan{sorted[0]}
	for _, span := range sorted[1:] {
		last := &merged[len(merged)-1]
		if span.start <= last.end {
			if span.end > last.end {
				last.end = span.end
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

// subtractSpans removes the closed set from the open set. Both inputs must
// be sorted and disjoint; the result is too.
func subtractSpans(open, closed []minuteSpan) []minuteSpan {
	var result []minuteSpan
	for _, o := range open {
		cursor := o.start
		for _, c := range closed {
			if c.end <= cursor || c.start >= o.end {
				continue
			}
			if c.start > cursor {
				result = append(result, minuteSpan{start: cursor, end: c.start})
			}
			if c.end > cursor {
				cursor = c.end
			}
		}
		if cursor < o.end {
			result = append(result, minuteSpan{start: cursor, end: o.end})
		}
	}
	return result
}

// bookedSpans clips calendar entries to the day and converts them to minute
// spans. Starts floor and ends round up to the next whole minute, so a
// booking with sub-minute bounds always blocks at least its full range and
// the resolver never offers a slot the coordinator would reject.
func bookedSpans(day time.Time, entries []models.CalendarEntry) []minuteSpan {
	dayEnd := day.AddDate(0, 0, 1)
	spans := make([]minuteSpan, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		start := e.StartTime
		if start.Before(day) {
			start = day
		}
		end := e.EndTime
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !start.Before(end) {
			continue
		}
		endOffset := end.Sub(day)
		endMinute := int(endOffset / time.Minute)
		if endOffset%time.Minute != 0 {
			endMinute++
		}
		spans = append(spans, minuteSpan{
			start: int(start.Sub(day) / time.Minute),
			end:   endMinute,
		})
	}
	return spans
}

func availabilityCacheKey(practitionerID string, date time.Time, durationMinutes int) string {
	return fmt.Sprintf("availability:%s:%s:%d", practitionerID, date.Format("2006-01-02"), durationMinutes)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/metrics"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AvailabilityService defines the interface for calendar queries
type AvailabilityService interface {
	// CheckAvailability reports whether a musician is free for a window
	CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error)
}

// availabilityChecker evaluates a candidate slot against a musician's
// committed bookings. Pending offers never count.
type availabilityChecker struct {
	buffer time.Duration
	log    *logger.Logger
}

// evaluate fails closed: a storage error yields an unavailable result
// together with the error.
func (c *availabilityChecker) evaluate(ctx context.Context, store repository.Store, musicianID string, candidate domain.Slot) (domain.AvailabilityResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.evaluate")
	defer span.End()
	defer metrics.ObserveDuration("availability.evaluate", time.Now())

	span.SetAttributes(
		attribute.String("musician_id", musicianID),
		attribute.String("date", domain.FormatDate(candidate.Date)),
		attribute.String("start_time", candidate.Start.String()),
		attribute.String("end_time", candidate.End.String()),
	)

	query := repository.SlotQuery{
		MusicianID:       musicianID,
		Date:             candidate.Date,
		ExcludeRequestID: candidate.RequestID,
	}

	blocks, err := store.Blocks().FindActive(ctx, query)
	if err != nil {
		return c.unverified(musicianID, fmt.Errorf("failed to load availability blocks: %w", err))
	}
	direct, err := store.Requests().FindCommittedSlots(ctx, query)
	if err != nil {
		return c.unverified(musicianID, fmt.Errorf("failed to load committed requests: %w", err))
	}

	committed := make([]domain.Slot, 0, len(blocks)+len(direct))
	for _, b := range blocks {
		committed = append(committed, b.Slot())
	}
	committed = append(committed, direct...)

	result := domain.EvaluateAvailability(committed, candidate, c.buffer)
	span.SetAttributes(
		attribute.Bool("is_available", result.IsAvailable),
		attribute.Int("conflicting_count", result.ConflictingCount),
	)
	metrics.RecordAvailability(result.IsAvailable, nil)
	return result, nil
}

func (c *availabilityChecker) unverified(musicianID string, err error) (domain.AvailabilityResult, error) {
	metrics.RecordAvailability(false, err)
	c.log.Error("availability check failed",
		zap.String("musician_id", musicianID),
		zap.Error(err),
	)
	return domain.Unverified(), err
}

// availabilityService implements AvailabilityService
type availabilityService struct {
	store   repository.Store
	checker *availabilityChecker
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(store repository.Store, cfg *EngineConfig) AvailabilityService {
	c := normalizeEngineConfig(cfg)
	return &availabilityService{
		store:   store,
		checker: &availabilityChecker{buffer: c.TravelBuffer, log: c.Logger},
	}
}

// CheckAvailability parses the window and evaluates it. Storage errors are
// reported as an unavailable result, not as an error.
func (s *availabilityService) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.check")
	defer span.End()

	if req == nil || req.MusicianID == "" {
		return nil, failSpan(span, domain.ErrInvalidMusicianID, "invalid musician_id")
	}

	slot, err := parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, failSpan(span, err, "invalid window")
	}
	slot.RequestID = req.ExcludeRequestID

	result, _ := s.checker.evaluate(ctx, s.store, req.MusicianID, slot)
	return dto.AvailabilityFromDomain(result), nil
}

// parseSlot parses and validates a date and time window
func parseSlot(date, start, end string) (domain.Slot, error) {
	d, err := domain.ParseDate(date)
	if err != nil {
		return domain.Slot{}, err
	}
	s, err := domain.ParseTimeOfDay(start)
	if err != nil {
		return domain.Slot{}, err
	}
	e, err := domain.ParseTimeOfDay(end)
	if err != nil {
		return domain.Slot{}, err
	}
	slot := domain.Slot{Date: d, Start: s, End: e}
	if err := slot.Validate(); err != nil {
		return domain.Slot{}, err
	}
	return slot, nil
}

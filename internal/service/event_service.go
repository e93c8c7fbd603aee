package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/metrics"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// EventService defines the interface for the event lifecycle
type EventService interface {
	// StartEvent marks the event started; only the committed musician may call it
	StartEvent(ctx context.Context, requestID, musicianID string) (*dto.EventTransitionResponse, error)

	// CompleteEvent marks the event and request completed; leader only
	CompleteEvent(ctx context.Context, requestID, leaderID string) (*dto.EventTransitionResponse, error)

	// GetEventStatus returns the lifecycle state and the current guard evaluations
	GetEventStatus(ctx context.Context, requestID, callerID string) (*dto.EventStatusResponse, error)
}

// eventService implements EventService
type eventService struct {
	store repository.Store
	rules domain.LifecycleRules
	loc   *time.Location
	clock func() time.Time
}

// NewEventService creates a new event service
func NewEventService(store repository.Store, cfg *EngineConfig) EventService {
	c := normalizeEngineConfig(cfg)
	return &eventService{
		store: store,
		rules: c.Lifecycle,
		loc:   c.Location,
		clock: c.Clock,
	}
}

// committedMusician returns the musician allowed to run the event: the
// assigned musician, or the holder of the selected offer.
func committedMusician(ctx context.Context, store repository.Store, req *domain.BookingRequest) (string, error) {
	if m := req.AssignedMusician(); m != "" {
		return m, nil
	}
	offer, err := store.Offers().FindSelected(ctx, req.ID)
	if errors.Is(err, domain.ErrOfferNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load selected offer: %w", err)
	}
	return offer.MusicianID, nil
}

// StartEvent applies none -> started inside the start window
func (s *eventService) StartEvent(ctx context.Context, requestID, musicianID string) (resp *dto.EventTransitionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.start")
	defer span.End()
	defer func() { metrics.RecordEventTransition("start", err) }()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}
	if musicianID == "" {
		return nil, failSpan(span, domain.ErrInvalidMusicianID, "invalid musician_id")
	}
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("musician_id", musicianID),
	)

	now := s.clock()
	var updated *domain.BookingRequest
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		committed, err := committedMusician(ctx, tx, req)
		if err != nil {
			return err
		}
		if committed == "" || committed != musicianID {
			return domain.ErrForbidden
		}
		if req.Status != domain.RequestStatusAccepted ||
			!req.EventStatus.CanTransitionTo(domain.EventStatusStarted) ||
			!s.rules.CanStart(req.Window(s.loc), now) {
			return domain.ErrInvalidTransition
		}

		err = tx.Requests().TransitionEvent(ctx, repository.EventTransition{
			RequestID: req.ID,
			From:      domain.EventStatusNone,
			To:        domain.EventStatusStarted,
			At:        now,
		})
		if err != nil {
			return err
		}

		if updated, err = tx.Requests().GetByID(ctx, req.ID); err != nil {
			return err
		}

		var batch outboxBatch
		batch.add(domain.RequestNotification(domain.EventEventStarted, updated.LeaderID, updated, map[string]interface{}{
			"musician_id": musicianID,
			"started_at":  domain.Timestamp(now),
		}))
		return batch.flush(ctx, tx)
	})
	if err != nil {
		return nil, failSpan(span, err, "start failed")
	}

	return transitionResponse(updated, now), nil
}

// CompleteEvent applies none|started -> completed once CanComplete holds
func (s *eventService) CompleteEvent(ctx context.Context, requestID, leaderID string) (resp *dto.EventTransitionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.complete")
	defer span.End()
	defer func() { metrics.RecordEventTransition("complete", err) }()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}
	if leaderID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid leader_id")
	}
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("leader_id", leaderID),
	)

	now := s.clock()
	var updated *domain.BookingRequest
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.IsLeader(leaderID) {
			return domain.ErrForbidden
		}
		if req.Status != domain.RequestStatusAccepted ||
			!req.EventStatus.CanTransitionTo(domain.EventStatusCompleted) ||
			!s.rules.CanComplete(req.Window(s.loc), now) {
			return domain.ErrInvalidTransition
		}

		err = tx.Requests().TransitionEvent(ctx, repository.EventTransition{
			RequestID:       req.ID,
			From:            req.EventStatus,
			To:              domain.EventStatusCompleted,
			At:              now,
			CompleteRequest: true,
		})
		if err != nil {
			return err
		}

		if updated, err = tx.Requests().GetByID(ctx, req.ID); err != nil {
			return err
		}

		var batch outboxBatch
		batch.add(domain.RequestNotification(domain.EventEventCompleted, updated.AssignedMusician(), updated, map[string]interface{}{
			"completed_at": domain.Timestamp(now),
		}))
		return batch.flush(ctx, tx)
	})
	if err != nil {
		return nil, failSpan(span, err, "complete failed")
	}

	return transitionResponse(updated, now), nil
}

func transitionResponse(req *domain.BookingRequest, at time.Time) *dto.EventTransitionResponse {
	return &dto.EventTransitionResponse{
		RequestID:   req.ID,
		Status:      req.Status.String(),
		EventStatus: req.EventStatus.String(),
		At:          at,
	}
}

// GetEventStatus is visible to the leader and the committed musician
func (s *eventService) GetEventStatus(ctx context.Context, requestID, callerID string) (*dto.EventStatusResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.status")
	defer span.End()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}

	req, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, failSpan(span, err, "request lookup failed")
	}
	committed, err := committedMusician(ctx, s.store, req)
	if err != nil {
		return nil, failSpan(span, err, "musician lookup failed")
	}
	if !req.IsLeader(callerID) && (committed == "" || committed != callerID) {
		return nil, failSpan(span, domain.ErrForbidden, "forbidden")
	}

	now := s.clock()
	window := req.Window(s.loc)
	accepted := req.Status == domain.RequestStatusAccepted
	return &dto.EventStatusResponse{
		RequestID:      req.ID,
		Status:         req.Status.String(),
		EventStatus:    req.EventStatus.String(),
		MusicianID:     committed,
		ScheduledStart: window.Start,
		ScheduledEnd:   window.End,
		StartedAt:      req.StartedAt,
		CompletedAt:    req.CompletedAt,
		CanStart:       accepted && s.rules.CanStart(window, now),
		CanComplete:    accepted && s.rules.CanComplete(window, now),
		EvaluatedAt:    now,
	}, nil
}

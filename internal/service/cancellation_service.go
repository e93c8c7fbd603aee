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

// CancellationService defines the interface for request cancellation
type CancellationService interface {
	// CancelRequest cancels a request and records the notice penalty; leader only
	CancelRequest(ctx context.Context, requestID, leaderID string, req *dto.CancelRequestRequest) (*dto.CancelResponse, error)

	// PreviewPenalty returns the penalty a cancellation would record now
	PreviewPenalty(ctx context.Context, requestID, callerID string) (*dto.PenaltyResponse, error)
}

// cancellationService implements CancellationService
type cancellationService struct {
	store repository.Store
	loc   *time.Location
	clock func() time.Time
	log   *logger.Logger
}

// NewCancellationService creates a new cancellation service
func NewCancellationService(store repository.Store, cfg *EngineConfig) CancellationService {
	c := normalizeEngineConfig(cfg)
	return &cancellationService{
		store: store,
		loc:   c.Location,
		clock: c.Clock,
		log:   c.Logger,
	}
}

// cancellable checks the request can still be cancelled at now
func (s *cancellationService) cancellable(req *domain.BookingRequest, now time.Time) error {
	if req.Status.IsTerminal() || !req.EventStatus.CanTransitionTo(domain.EventStatusCancelled) {
		return domain.ErrAlreadyTerminal
	}
	if now.After(req.ScheduledEnd(s.loc)) {
		return domain.ErrRequestAlreadyFinished
	}
	return nil
}

// CancelRequest cancels the request, releases the calendar and rejects
// pending offers in one transaction
func (s *cancellationService) CancelRequest(ctx context.Context, requestID, leaderID string, req *dto.CancelRequestRequest) (*dto.CancelResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.cancellation.cancel")
	defer span.End()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}
	if leaderID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid leader_id")
	}
	reason := ""
	if req != nil {
		reason = req.Reason
	}
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("leader_id", leaderID),
	)

	now := s.clock()
	resp := &dto.CancelResponse{RequestID: requestID, CancelledAt: now}
	var penalty domain.Penalty

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		booking, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !booking.IsLeader(leaderID) {
			return domain.ErrForbidden
		}
		if err := s.cancellable(booking, now); err != nil {
			return err
		}

		penalty = domain.ComputePenalty(booking.ScheduledStart(s.loc), now)
		err = tx.Requests().Cancel(ctx, repository.CancelTransition{
			RequestID: booking.ID,
			Reason:    reason,
			Penalty:   penalty,
			At:        now,
		})
		if err != nil {
			return err
		}

		released, err := tx.Blocks().ReleaseByRequest(ctx, booking.ID, now)
		if err != nil {
			return fmt.Errorf("failed to release availability blocks: %w", err)
		}
		rejected, err := tx.Offers().RejectPendingByRequest(ctx, booking.ID, now)
		if err != nil {
			return fmt.Errorf("failed to reject pending offers: %w", err)
		}

		cancelled, err := tx.Requests().GetByID(ctx, booking.ID)
		if err != nil {
			return err
		}

		extra := map[string]interface{}{
			"reason":             reason,
			"penalty_percentage": penalty.Percentage,
			"penalty_tier":       penalty.Tier.String(),
			"cancelled_at":       domain.Timestamp(now),
		}
		var batch outboxBatch
		batch.add(domain.RequestNotification(domain.EventRequestCancelled, cancelled.AssignedMusician(), cancelled, extra))
		for _, o := range rejected {
			batch.add(domain.RequestNotification(domain.EventRequestCancelled, o.MusicianID, cancelled, map[string]interface{}{
				"offer_id":     o.ID,
				"cancelled_at": domain.Timestamp(now),
			}))
		}
		if err := batch.flush(ctx, tx); err != nil {
			return err
		}

		resp.Status = cancelled.Status.String()
		resp.ReleasedBlocks = released
		resp.RejectedOfferIDs = offerIDs(rejected)
		return nil
	})
	if err != nil {
		return nil, failSpan(span, err, "cancel failed")
	}

	resp.PenaltyPercentage = penalty.Percentage
	resp.PenaltyTier = penalty.Tier.String()
	resp.HoursUntilStart = penalty.HoursUntilStart
	metrics.RecordCancellation(penalty.Tier.String())

	s.log.Info("request cancelled",
		zap.String("request_id", requestID),
		zap.String("penalty_tier", penalty.Tier.String()),
		zap.Int("penalty_percentage", penalty.Percentage),
		zap.Int64("released_blocks", resp.ReleasedBlocks),
	)
	return resp, nil
}

// PreviewPenalty computes the current penalty without cancelling
func (s *cancellationService) PreviewPenalty(ctx context.Context, requestID, callerID string) (*dto.PenaltyResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.cancellation.preview")
	defer span.End()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}

	booking, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, failSpan(span, err, "request lookup failed")
	}
	if !booking.IsLeader(callerID) {
		return nil, failSpan(span, domain.ErrForbidden, "forbidden")
	}

	now := s.clock()
	if err := s.cancellable(booking, now); err != nil {
		return nil, failSpan(span, err, "not cancellable")
	}

	start := booking.ScheduledStart(s.loc)
	penalty := domain.ComputePenalty(start, now)
	return &dto.PenaltyResponse{
		RequestID:       booking.ID,
		Percentage:      penalty.Percentage,
		Tier:            penalty.Tier.String(),
		HoursUntilStart: penalty.HoursUntilStart,
		ScheduledStart:  start,
		EvaluatedAt:     now,
	}, nil
}

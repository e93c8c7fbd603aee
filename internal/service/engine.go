package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EngineConfig contains the booking rules shared by the engine services
type EngineConfig struct {
	// Location is the timezone event dates and times are interpreted in
	Location          *time.Location
	TravelBuffer      time.Duration
	Lifecycle         domain.LifecycleRules
	EnforceHourBounds bool
	DefaultCurrency   string
	// Clock returns the current time; tests pin it
	Clock  func() time.Time
	Logger *logger.Logger
}

func normalizeEngineConfig(cfg *EngineConfig) EngineConfig {
	out := EngineConfig{
		Location:        time.UTC,
		TravelBuffer:    domain.DefaultTravelBuffer,
		Lifecycle:       domain.DefaultLifecycleRules(),
		DefaultCurrency: "DOP",
		Clock:           time.Now,
	}
	if cfg == nil {
		out.Logger = logger.Get()
		return out
	}
	if cfg.Location != nil {
		out.Location = cfg.Location
	}
	if cfg.TravelBuffer > 0 {
		out.TravelBuffer = cfg.TravelBuffer
	}
	if cfg.Lifecycle.StartWindowBefore > 0 {
		out.Lifecycle.StartWindowBefore = cfg.Lifecycle.StartWindowBefore
	}
	if cfg.Lifecycle.StartWindowAfter > 0 {
		out.Lifecycle.StartWindowAfter = cfg.Lifecycle.StartWindowAfter
	}
	if cfg.Lifecycle.MinDurationBeforeComplete > 0 {
		out.Lifecycle.MinDurationBeforeComplete = cfg.Lifecycle.MinDurationBeforeComplete
	}
	if cfg.DefaultCurrency != "" {
		out.DefaultCurrency = cfg.DefaultCurrency
	}
	if cfg.Clock != nil {
		out.Clock = cfg.Clock
	}
	out.EnforceHourBounds = cfg.EnforceHourBounds
	out.Logger = cfg.Logger
	if out.Logger == nil {
		out.Logger = logger.Get()
	}
	return out
}

// failSpan marks the span as failed and returns err unchanged
func failSpan(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

// outboxBatch collects notifications for a transaction
type outboxBatch struct {
	msgs []*domain.OutboxMessage
	err  error
}

// add appends msg. Messages without a recipient are dropped.
func (b *outboxBatch) add(msg *domain.OutboxMessage, err error) {
	if b.err != nil {
		return
	}
	if err != nil {
		b.err = err
		return
	}
	if msg.RecipientID == "" {
		return
	}
	b.msgs = append(b.msgs, msg)
}

// flush writes the batch through the transaction's outbox repository
func (b *outboxBatch) flush(ctx context.Context, tx repository.Store) error {
	if b.err != nil {
		return fmt.Errorf("failed to build notification: %w", b.err)
	}
	for _, msg := range b.msgs {
		if err := tx.Outbox().Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to write outbox message: %w", err)
		}
	}
	return nil
}

func offerIDs(offers []*domain.Offer) []string {
	ids := make([]string, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.ID)
	}
	return ids
}

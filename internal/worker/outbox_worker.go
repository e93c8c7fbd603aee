package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/metrics"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/notify"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/retry"
	"go.uber.org/zap"
)

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages to fetch in each poll
	BatchSize int
	// RetryInterval is the interval between retrying failed messages
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanup of old published messages
	CleanupInterval time.Duration
	// RetentionPeriod is how long published messages are kept
	RetentionPeriod time.Duration
	// Delivery bounds the in-place retries of a single Notify call
	Delivery *retry.Config
	// DeadLetters receives messages that used their last retry. Defaults to
	// the notifier when it can publish dead letters.
	DeadLetters retry.DLQPublisher
	// Logger defaults to the process logger
	Logger *logger.Logger
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:    500 * time.Millisecond,
		BatchSize:       100,
		RetryInterval:   10 * time.Second,
		CleanupInterval: 1 * time.Hour,
		RetentionPeriod: 7 * 24 * time.Hour,
		Delivery: &retry.Config{
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
}

func (c *OutboxWorkerConfig) applyDefaults() {
	d := DefaultOutboxWorkerConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.RetentionPeriod <= 0 {
		c.RetentionPeriod = d.RetentionPeriod
	}
	if c.Delivery == nil {
		c.Delivery = d.Delivery
	}
}

// OutboxWorker polls the outbox and delivers notifications through a Notifier.
// No store transaction or lock is held while a notifier call is in flight.
type OutboxWorker struct {
	store    repository.Store
	notifier notify.Notifier
	config   *OutboxWorkerConfig
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool

	published    atomic.Int64
	failed       atomic.Int64
	deadLettered atomic.Int64
	cleaned      atomic.Int64
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(store repository.Store, notifier notify.Notifier, config *OutboxWorkerConfig) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}
	config.applyDefaults()
	if config.DeadLetters == nil {
		if p, ok := notifier.(retry.DLQPublisher); ok {
			config.DeadLetters = p
		} else {
			config.DeadLetters = retry.NoOpDLQPublisher{}
		}
	}

	log := config.Logger
	if log == nil {
		log = logger.Get()
	}

	return &OutboxWorker{
		store:    store,
		notifier: notifier,
		config:   config,
		log:      log.With(zap.String("component", "outbox-worker")),
		stopCh:   make(chan struct{}),
	}
}

// Start starts the outbox worker
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting outbox worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(3)
	go w.loop(ctx, w.config.PollInterval, w.pollPending)
	go w.loop(ctx, w.config.RetryInterval, w.pollFailed)
	go w.loop(ctx, w.config.CleanupInterval, w.cleanup)

	return nil
}

// Stop stops the outbox worker and waits for in-flight batches
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Outbox worker stopped")
}

func (w *OutboxWorker) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func (w *OutboxWorker) pollPending(ctx context.Context) {
	if _, err := w.ProcessPending(ctx); err != nil {
		w.log.Error("Failed to process pending messages", zap.Error(err))
	}
}

func (w *OutboxWorker) pollFailed(ctx context.Context) {
	if _, err := w.ProcessFailed(ctx); err != nil {
		w.log.Error("Failed to process failed messages", zap.Error(err))
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	deleted, err := w.Cleanup(ctx)
	if err != nil {
		w.log.Error("Failed to cleanup old messages", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("Cleaned up old published messages", zap.Int64("deleted", deleted))
	}
}

// ProcessPending delivers one batch of pending messages and returns how many
// were published
func (w *OutboxWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processBatch(ctx, func(ctx context.Context, outbox repository.OutboxRepository) ([]*domain.OutboxMessage, error) {
		return outbox.GetPendingMessages(ctx, w.config.BatchSize)
	})
}

// ProcessFailed redelivers one batch of failed messages that still have
// retries left
func (w *OutboxWorker) ProcessFailed(ctx context.Context) (int, error) {
	return w.processBatch(ctx, func(ctx context.Context, outbox repository.OutboxRepository) ([]*domain.OutboxMessage, error) {
		return outbox.GetFailedMessages(ctx, w.config.BatchSize)
	})
}

// Cleanup deletes published messages older than the retention period
func (w *OutboxWorker) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := w.store.Outbox().DeletePublished(ctx, w.config.RetentionPeriod)
	if err != nil {
		return 0, err
	}
	w.cleaned.Add(deleted)
	return deleted, nil
}

type fetchFunc func(ctx context.Context, outbox repository.OutboxRepository) ([]*domain.OutboxMessage, error)

// processBatch reads a batch, delivers each message with no store
// transaction held, then records the outcome in its own write. Delivery is
// at least once: a crash between Notify and MarkAsPublished redelivers.
func (w *OutboxWorker) processBatch(ctx context.Context, fetch fetchFunc) (int, error) {
	outbox := w.store.Outbox()
	messages, err := fetch(ctx, outbox)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch outbox messages: %w", err)
	}

	published := 0
	for _, msg := range messages {
		if err := w.deliver(ctx, msg); err != nil {
			w.failed.Add(1)
			w.log.Warn("Failed to deliver notification",
				zap.String("message_id", msg.ID),
				zap.String("event_type", msg.EventType),
				zap.Int("attempt", msg.RetryCount+1),
				zap.Int("max_retries", msg.MaxRetries),
				zap.Error(err),
			)
			if markErr := outbox.MarkAsFailed(ctx, msg.ID, err.Error()); markErr != nil {
				w.log.Error("Failed to mark message as failed",
					zap.String("message_id", msg.ID),
					zap.Error(markErr),
				)
				continue
			}
			if msg.RetryCount+1 >= msg.MaxRetries {
				w.deadLetter(ctx, msg, err)
			}
			continue
		}

		if err := outbox.MarkAsPublished(ctx, msg.ID); err != nil {
			w.log.Error("Failed to mark message as published",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		w.published.Add(1)
		published++
	}
	return published, nil
}

// deliver sends a single message, retrying transient notifier errors in place
func (w *OutboxWorker) deliver(ctx context.Context, msg *domain.OutboxMessage) error {
	payload, err := msg.PayloadMap()
	if err != nil {
		err = fmt.Errorf("invalid payload: %w", err)
		metrics.RecordNotification(msg.EventType, err)
		return err
	}

	result := retry.New(w.config.Delivery).Do(ctx, func(ctx context.Context) error {
		return w.notifier.Notify(ctx, msg.RecipientID, msg.EventType, payload)
	})

	err = result.Err
	if err != nil && result.LastError != nil {
		err = result.LastError
	}
	metrics.RecordNotification(msg.EventType, err)
	return err
}

// deadLetter hands a message that will not be retried to the DLQ publisher.
// The row stays in the outbox as failed either way.
func (w *OutboxWorker) deadLetter(ctx context.Context, msg *domain.OutboxMessage, cause error) {
	dlq := &retry.DLQMessage{
		ID:             msg.ID,
		OriginalKey:    msg.RecipientID,
		Payload:        msg.Payload,
		Error:          cause.Error(),
		Attempts:       msg.RetryCount + 1,
		FirstAttemptAt: msg.CreatedAt,
		Metadata: map[string]interface{}{
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID,
		},
	}
	if err := dlq.Stamp("outbox-worker", time.Now()); err != nil {
		w.log.Warn("Failed to stamp dead letter",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}

	w.deadLettered.Add(1)
	metrics.RecordDeadLetter(msg.EventType)
	if err := w.config.DeadLetters.PublishToDLQ(ctx, dlq); err != nil {
		w.log.Error("Failed to publish dead letter",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

// GetStats returns worker statistics
func (w *OutboxWorker) GetStats() *OutboxWorkerStats {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	return &OutboxWorkerStats{
		IsRunning:    running,
		Published:    w.published.Load(),
		Failed:       w.failed.Load(),
		DeadLettered: w.deadLettered.Load(),
		Cleaned:      w.cleaned.Load(),
	}
}

// OutboxWorkerStats contains worker statistics
type OutboxWorkerStats struct {
	IsRunning    bool  `json:"is_running"`
	Published    int64 `json:"published"`
	Failed       int64 `json:"failed"`
	DeadLettered int64 `json:"dead_lettered"`
	Cleaned      int64 `json:"cleaned"`
}

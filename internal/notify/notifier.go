package notify

import (
	"context"
	"fmt"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/config"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/retry"
	"go.uber.org/zap"
)

// Notifier delivers a best-effort signal to one user
type Notifier interface {
	// Notify sends eventType with payload to userID
	Notify(ctx context.Context, userID, eventType string, payload map[string]interface{}) error

	// Close releases transport resources
	Close() error
}

// LogNotifier only logs notifications. Used in development and when no
// transport is configured.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Get()
	}
	return &LogNotifier{log: log}
}

// Notify logs the notification
func (n *LogNotifier) Notify(_ context.Context, userID, eventType string, payload map[string]interface{}) error {
	n.log.Info("notification",
		zap.String("user_id", userID),
		zap.String("event_type", eventType),
		zap.Any("payload", payload),
	)
	return nil
}

// PublishToDLQ logs a notification that will not be retried again
func (n *LogNotifier) PublishToDLQ(_ context.Context, msg *retry.DLQMessage) error {
	n.log.Error("notification dead-lettered",
		zap.String("message_id", msg.ID),
		zap.String("recipient_id", msg.OriginalKey),
		zap.Int("attempts", msg.Attempts),
		zap.String("error", msg.Error),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}

// Close is a no-op
func (n *LogNotifier) Close() error {
	return nil
}

// New builds the notifier selected by cfg.Notifier.Driver
func New(cfg *config.Config, log *logger.Logger) (Notifier, error) {
	switch cfg.Notifier.Driver {
	case "", "log":
		return NewLogNotifier(log), nil
	case "kafka":
		return NewKafkaNotifier(&KafkaNotifierConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			Topic:    cfg.Notifier.Topic,
		})
	case "pubnub":
		return NewPubNubNotifier(&PubNubNotifierConfig{
			PublishKey:   cfg.PubNub.PublishKey,
			SubscribeKey: cfg.PubNub.SubscribeKey,
			SecretKey:    cfg.PubNub.SecretKey,
			UserID:       cfg.PubNub.UserID,
		})
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Notifier.Driver)
	}
}

var (
	_ Notifier           = (*LogNotifier)(nil)
	_ retry.DLQPublisher = (*LogNotifier)(nil)
)

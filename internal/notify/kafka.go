package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/retry"
	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultTopic = "booking-notifications"

// producer is the subset of *kgo.Client used for publishing
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaNotifierConfig contains configuration for the Kafka notifier
type KafkaNotifierConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// KafkaNotifier publishes notifications to a Kafka topic keyed by user id
type KafkaNotifier struct {
	producer producer
	topic    string
}

// NewKafkaNotifier creates a franz-go client and wraps it
func NewKafkaNotifier(cfg *KafkaNotifierConfig) (*KafkaNotifier, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "booking-engine-notifier"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return newKafkaNotifier(client, cfg.Topic), nil
}

func newKafkaNotifier(p producer, topic string) *KafkaNotifier {
	if topic == "" {
		topic = defaultTopic
	}
	return &KafkaNotifier{producer: p, topic: topic}
}

type kafkaNotification struct {
	UserID    string                 `json:"user_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
	SentAt    time.Time              `json:"sent_at"`
}

// Notify produces one record and waits for the broker ack
func (n *KafkaNotifier) Notify(ctx context.Context, userID, eventType string, payload map[string]interface{}) error {
	value, err := json.Marshal(kafkaNotification{
		UserID:    userID,
		EventType: eventType,
		Payload:   payload,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to encode notification: %w", err))
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(userID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "content_type", Value: []byte("application/json")},
			{Key: "source", Value: []byte("booking-engine")},
		},
	}

	if err := n.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce notification: %w", err)
	}
	return nil
}

// PublishToDLQ parks an undeliverable notification on the topic's dead
// letter topic
func (n *KafkaNotifier) PublishToDLQ(ctx context.Context, msg *retry.DLQMessage) error {
	if msg.OriginalTopic == "" {
		msg.OriginalTopic = n.topic
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode dead letter: %w", err)
	}

	record := &kgo.Record{
		Topic: retry.DLQTopic(msg.OriginalTopic),
		Key:   []byte(msg.OriginalKey),
		Value: value,
	}
	for k, v := range msg.Headers() {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	if err := n.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce dead letter: %w", err)
	}
	return nil
}

// Close flushes and closes the client
func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		n.producer.Close()
	}
	return nil
}

var (
	_ Notifier           = (*KafkaNotifier)(nil)
	_ retry.DLQPublisher = (*KafkaNotifier)(nil)
)

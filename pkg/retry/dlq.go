package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DLQSuffix is appended to a topic to name its dead letter topic
const DLQSuffix = ".dlq"

// DLQMessage is a message that exhausted its delivery attempts
type DLQMessage struct {
	ID             string                 `json:"id"`
	OriginalTopic  string                 `json:"original_topic"`
	OriginalKey    string                 `json:"original_key"`
	Payload        json.RawMessage        `json:"payload"`
	Error          string                 `json:"error"`
	Attempts       int                    `json:"attempts"`
	FirstAttemptAt time.Time              `json:"first_attempt_at"`
	LastAttemptAt  time.Time              `json:"last_attempt_at"`
	MovedToDLQAt   time.Time              `json:"moved_to_dlq_at"`
	Source         string                 `json:"source"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Headers returns the transport headers describing the failure
func (m *DLQMessage) Headers() map[string]string {
	return map[string]string{
		"content_type":    "application/json",
		"original_topic":  m.OriginalTopic,
		"error":           m.Error,
		"attempts":        fmt.Sprintf("%d", m.Attempts),
		"moved_to_dlq_at": m.MovedToDLQAt.Format(time.RFC3339),
		"source":          m.Source,
	}
}

// DLQPublisher parks messages that can no longer be delivered
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg *DLQMessage) error
}

// DLQPublisherFunc adapts a function to DLQPublisher
type DLQPublisherFunc func(ctx context.Context, msg *DLQMessage) error

// PublishToDLQ calls f
func (f DLQPublisherFunc) PublishToDLQ(ctx context.Context, msg *DLQMessage) error {
	return f(ctx, msg)
}

// DLQTopic returns the dead letter topic for topic
func DLQTopic(topic string) string {
	return topic + DLQSuffix
}

// Stamp fills the bookkeeping fields before publishing
func (m *DLQMessage) Stamp(source string, now time.Time) error {
	if m == nil {
		return fmt.Errorf("DLQ message cannot be nil")
	}
	if m.ID == "" {
		return fmt.Errorf("DLQ message requires an ID")
	}
	m.Source = source
	m.MovedToDLQAt = now
	if m.LastAttemptAt.IsZero() {
		m.LastAttemptAt = now
	}
	return nil
}

// NoOpDLQPublisher drops dead letters
type NoOpDLQPublisher struct{}

// PublishToDLQ does nothing
func (NoOpDLQPublisher) PublishToDLQ(context.Context, *DLQMessage) error {
	return nil
}

var (
	_ DLQPublisher = NoOpDLQPublisher{}
	_ DLQPublisher = DLQPublisherFunc(nil)
)

package domain

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// IsValid checks if the status is a valid OutboxStatus
func (s OutboxStatus) IsValid() bool {
	switch s {
	case OutboxStatusPending, OutboxStatusPublished, OutboxStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OutboxStatus
func (s OutboxStatus) String() string {
	return string(s)
}

// DefaultOutboxMaxRetries bounds delivery attempts per message
const DefaultOutboxMaxRetries = 5

// OutboxMessage is a notification written in the same transaction as the
// state change it describes, delivered later by the outbox worker.
type OutboxMessage struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"` // "request" or "offer"
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"` // e.g. "offer.selected"
	RecipientID   string          `json:"recipient_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        OutboxStatus    `json:"status"`
	RetryCount    int             `json:"retry_count"`
	MaxRetries    int             `json:"max_retries"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
}

// NewOutboxMessage creates a pending outbox message
func NewOutboxMessage(aggregateType, aggregateID, eventType, recipientID string, payload interface{}) (*OutboxMessage, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		RecipientID:   recipientID,
		Payload:       payloadBytes,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultOutboxMaxRetries,
		CreatedAt:     time.Now(),
	}, nil
}

// CanRetry checks if the message can be retried
func (m *OutboxMessage) CanRetry() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount < m.MaxRetries
}

// MarkAsPublished marks the message as successfully published
func (m *OutboxMessage) MarkAsPublished(now time.Time) {
	m.Status = OutboxStatusPublished
	m.PublishedAt = &now
	m.ProcessedAt = &now
}

// MarkAsFailed records a failed attempt
func (m *OutboxMessage) MarkAsFailed(err string, now time.Time) {
	m.Status = OutboxStatusFailed
	m.LastError = err
	m.RetryCount++
	m.ProcessedAt = &now
}

// PayloadMap decodes the payload for notifiers that publish maps
func (m *OutboxMessage) PayloadMap() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if len(m.Payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(m.Payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

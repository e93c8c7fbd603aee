package dto

import (
	"time"
)

// EventStatusResponse represents an event's lifecycle state and guard evaluations
type EventStatusResponse struct {
	RequestID      string     `json:"request_id"`
	Status         string     `json:"status"`
	EventStatus    string     `json:"event_status"`
	MusicianID     string     `json:"musician_id,omitempty"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   time.Time  `json:"scheduled_end"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CanStart       bool       `json:"can_start"`
	CanComplete    bool       `json:"can_complete"`
	EvaluatedAt    time.Time  `json:"evaluated_at"`
}

// EventTransitionResponse represents the result of starting or completing an event
type EventTransitionResponse struct {
	RequestID   string    `json:"request_id"`
	Status      string    `json:"status"`
	EventStatus string    `json:"event_status"`
	At          time.Time `json:"at"`
}

// CancelRequestRequest represents a leader cancelling a request
type CancelRequestRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelResponse represents the result of a cancellation
type CancelResponse struct {
	RequestID         string    `json:"request_id"`
	Status            string    `json:"status"`
	PenaltyPercentage int       `json:"penalty_percentage"`
	PenaltyTier       string    `json:"penalty_tier"`
	HoursUntilStart   float64   `json:"hours_until_start"`
	ReleasedBlocks    int64     `json:"released_blocks"`
	RejectedOfferIDs  []string  `json:"rejected_offer_ids"`
	CancelledAt       time.Time `json:"cancelled_at"`
}

// PenaltyResponse represents a cancellation penalty preview
type PenaltyResponse struct {
	RequestID       string    `json:"request_id"`
	Percentage      int       `json:"percentage"`
	Tier            string    `json:"tier"`
	HoursUntilStart float64   `json:"hours_until_start"`
	ScheduledStart  time.Time `json:"scheduled_start"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

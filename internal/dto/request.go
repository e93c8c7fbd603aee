package dto

import (
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateRequestRequest represents a leader posting a new booking request
type CreateRequestRequest struct {
	EventDate          string           `json:"event_date" binding:"required"`
	StartTime          string           `json:"start_time" binding:"required"`
	EndTime            string           `json:"end_time" binding:"required"`
	Location           string           `json:"location,omitempty"`
	RequiredInstrument string           `json:"required_instrument,omitempty"`
	ExtraAmount        *decimal.Decimal `json:"extra_amount,omitempty"`
}

// RequestResponse represents a booking request in API response
type RequestResponse struct {
	ID                 string          `json:"id"`
	LeaderID           string          `json:"leader_id"`
	EventDate          string          `json:"event_date"`
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	Location           string          `json:"location,omitempty"`
	RequiredInstrument string          `json:"required_instrument,omitempty"`
	ExtraAmount        decimal.Decimal `json:"extra_amount"`
	Status             string          `json:"status"`
	EventStatus        string          `json:"event_status"`
	MusicianID         *string         `json:"musician_id,omitempty"`
	AcceptedBy         *string         `json:"accepted_by,omitempty"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	PenaltyPercentage  int             `json:"penalty_percentage,omitempty"`
	PenaltyTier        string          `json:"penalty_tier,omitempty"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// RequestFromDomain converts a domain BookingRequest to RequestResponse
func RequestFromDomain(r *domain.BookingRequest) *RequestResponse {
	return &RequestResponse{
		ID:                 r.ID,
		LeaderID:           r.LeaderID,
		EventDate:          domain.FormatDate(r.EventDate),
		StartTime:          r.StartTime.String(),
		EndTime:            r.EndTime.String(),
		Location:           r.Location,
		RequiredInstrument: r.RequiredInstrument,
		ExtraAmount:        r.ExtraAmount,
		Status:             r.Status.String(),
		EventStatus:        r.EventStatus.String(),
		MusicianID:         r.MusicianID,
		AcceptedBy:         r.AcceptedBy,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
		PenaltyPercentage:  r.PenaltyPercentage,
		PenaltyTier:        r.PenaltyTier.String(),
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

package dto

import "github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"

// CheckAvailabilityRequest represents an availability query for one musician
type CheckAvailabilityRequest struct {
	MusicianID       string `json:"musician_id" binding:"required"`
	Date             string `json:"date" binding:"required"`
	StartTime        string `json:"start_time" binding:"required"`
	EndTime          string `json:"end_time" binding:"required"`
	ExcludeRequestID string `json:"exclude_request_id,omitempty"`
}

// AvailabilityResponse represents the outcome of an availability check
type AvailabilityResponse struct {
	IsAvailable      bool   `json:"is_available"`
	ConflictingCount int    `json:"conflicting_count"`
	Reason           string `json:"reason"`
}

// AvailabilityFromDomain converts a domain AvailabilityResult
func AvailabilityFromDomain(r domain.AvailabilityResult) *AvailabilityResponse {
	return &AvailabilityResponse{
		IsAvailable:      r.IsAvailable,
		ConflictingCount: r.ConflictingCount,
		Reason:           r.Reason,
	}
}

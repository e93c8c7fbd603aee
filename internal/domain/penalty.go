package domain

import (
	"time"
)

// PenaltyTier names the cancellation notice bracket
type PenaltyTier string

const (
	PenaltyTierNone        PenaltyTier = ""
	PenaltyTierFree        PenaltyTier = "free"
	PenaltyTierShortNotice PenaltyTier = "short_notice"
	PenaltyTierLate        PenaltyTier = "late"
)

// String returns the string representation of PenaltyTier
func (t PenaltyTier) String() string {
	return string(t)
}

const (
	lateNotice  = 24 * time.Hour
	shortNotice = 48 * time.Hour
)

// Penalty is the informational charge recorded on cancellation
type Penalty struct {
	Percentage      int
	Tier            PenaltyTier
	HoursUntilStart float64
}

// ComputePenalty maps remaining notice to a tier:
// under 24h is 50%, 24h to 48h is 25%, over 48h is free.
func ComputePenalty(scheduledStart, now time.Time) Penalty {
	remaining := scheduledStart.Sub(now)
	p := Penalty{HoursUntilStart: remaining.Hours()}

	switch {
	case remaining < lateNotice:
		p.Percentage, p.Tier = 50, PenaltyTierLate
	case remaining <= shortNotice:
		p.Percentage, p.Tier = 25, PenaltyTierShortNotice
	default:
		p.Percentage, p.Tier = 0, PenaltyTierFree
	}
	return p
}

package domain

import (
	"time"
)

// DefaultTravelBuffer is the idle time required between two committed events
const DefaultTravelBuffer = 90 * time.Minute

// Slot is a calendar date plus a [Start, End) time-of-day window
type Slot struct {
	Date      time.Time
	Start     TimeOfDay
	End       TimeOfDay
	RequestID string
}

// Validate rejects zero-length and inverted windows
func (s Slot) Validate() error {
	if s.Date.IsZero() {
		return ErrInvalidDate
	}
	if !s.Start.Valid() || !s.End.Valid() {
		return ErrInvalidTimeFormat
	}
	if s.End <= s.Start {
		return ErrInvalidTimeRange
	}
	return nil
}

// Duration returns End-Start
func (s Slot) Duration() time.Duration {
	return DurationBetween(s.Start, s.End)
}

// ConflictsWith reports whether candidate cannot be booked next to the
// existing slot s. The buffer is added to each end once, so the check is
// symmetric in both directions. Slots on different dates never conflict.
func (s Slot) ConflictsWith(candidate Slot, buffer time.Duration) bool {
	if !SameDate(s.Date, candidate.Date) {
		return false
	}
	b := TimeOfDay(buffer / time.Second)
	return s.Start < candidate.End+b && candidate.Start < s.End+b
}

// AvailabilityBlock marks a musician's calendar as committed for a booking
type AvailabilityBlock struct {
	ID         string
	MusicianID string
	Date       time.Time
	StartTime  TimeOfDay
	EndTime    TimeOfDay
	RequestID  string
	CreatedAt  time.Time
	ReleasedAt *time.Time
}

// Slot returns the block's window
func (b *AvailabilityBlock) Slot() Slot {
	return Slot{Date: b.Date, Start: b.StartTime, End: b.EndTime, RequestID: b.RequestID}
}

// IsActive reports whether the block still holds the calendar
func (b *AvailabilityBlock) IsActive() bool {
	return b.ReleasedAt == nil
}

// NewAvailabilityBlock creates a block covering the request's window
func NewAvailabilityBlock(musicianID string, req *BookingRequest, now time.Time) *AvailabilityBlock {
	return &AvailabilityBlock{
		MusicianID: musicianID,
		Date:       req.EventDate,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		RequestID:  req.ID,
		CreatedAt:  now,
	}
}

// AvailabilityResult is the outcome of an availability check
type AvailabilityResult struct {
	IsAvailable      bool
	ConflictingCount int
	Reason           string
}

// Availability reasons
const (
	ReasonAvailable   = "available"
	ReasonConflict    = "musician has a conflicting booking within the travel buffer"
	ReasonCheckFailed = "availability could not be verified"
)

// CountConflicts counts committed slots that block candidate. Slots belonging
// to the candidate's own request are skipped, and each request counts once.
func CountConflicts(committed []Slot, candidate Slot, buffer time.Duration) int {
	seen := make(map[string]struct{}, len(committed))
	count := 0
	for _, existing := range committed {
		if candidate.RequestID != "" && existing.RequestID == candidate.RequestID {
			continue
		}
		if existing.RequestID != "" {
			if _, ok := seen[existing.RequestID]; ok {
				continue
			}
		}
		if existing.ConflictsWith(candidate, buffer) {
			count++
			if existing.RequestID != "" {
				seen[existing.RequestID] = struct{}{}
			}
		}
	}
	return count
}

// EvaluateAvailability turns committed slots into an AvailabilityResult
func EvaluateAvailability(committed []Slot, candidate Slot, buffer time.Duration) AvailabilityResult {
	n := CountConflicts(committed, candidate, buffer)
	if n > 0 {
		return AvailabilityResult{IsAvailable: false, ConflictingCount: n, Reason: ReasonConflict}
	}
	return AvailabilityResult{IsAvailable: true, Reason: ReasonAvailable}
}

// Unverified is the fail-closed result used when storage cannot be read
func Unverified() AvailabilityResult {
	return AvailabilityResult{IsAvailable: false, Reason: ReasonCheckFailed}
}

package domain

import (
	"time"
)

// LifecycleRules holds the time windows that gate start and completion
type LifecycleRules struct {
	// StartWindowBefore is how early a musician may start
	StartWindowBefore time.Duration
	// StartWindowAfter is how late a musician may still start
	StartWindowAfter time.Duration
	// MinDurationBeforeComplete is the minimum run time before the leader may complete
	MinDurationBeforeComplete time.Duration
}

// DefaultLifecycleRules returns the standard windows
func DefaultLifecycleRules() LifecycleRules {
	return LifecycleRules{
		StartWindowBefore:         15 * time.Minute,
		StartWindowAfter:          60 * time.Minute,
		MinDurationBeforeComplete: 2 * time.Minute,
	}
}

// EventWindow is the absolute view of a booking used by the guards
type EventWindow struct {
	Start     time.Time
	End       time.Time
	Status    EventStatus
	StartedAt *time.Time
}

// CanStart is true when the event has not moved yet and now is within
// [Start-StartWindowBefore, Start+StartWindowAfter], both ends inclusive.
func (r LifecycleRules) CanStart(w EventWindow, now time.Time) bool {
	if w.Status != EventStatusNone && w.Status != "" {
		return false
	}
	earliest := w.Start.Add(-r.StartWindowBefore)
	latest := w.Start.Add(r.StartWindowAfter)
	return !now.Before(earliest) && !now.After(latest)
}

// CanComplete is always true once the slot has ended, even if the event
// was never started.
func (r LifecycleRules) CanComplete(w EventWindow, now time.Time) bool {
	if w.Status == EventStatusCompleted || w.Status == EventStatusCancelled {
		return false
	}
	if now.Before(w.Start) {
		return false
	}
	if !now.Before(w.End) {
		return true
	}
	if w.Status == EventStatusStarted && w.StartedAt != nil {
		return !now.Before(w.StartedAt.Add(r.MinDurationBeforeComplete))
	}
	return !now.Before(w.Start.Add(r.MinDurationBeforeComplete))
}

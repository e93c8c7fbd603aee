package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the booking request's own lifecycle
type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusActive, RequestStatusAccepted, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// EventStatus is the started/completed sub-state of a confirmed booking
type EventStatus string

const (
	EventStatusNone      EventStatus = "none"
	EventStatusStarted   EventStatus = "started"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// IsValid checks if the status is a valid EventStatus
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusNone, EventStatusStarted, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the event can no longer move
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// String returns the string representation of EventStatus
func (s EventStatus) String() string {
	return string(s)
}

// CanTransitionTo enforces forward-only movement:
// none -> started -> completed, and cancelled from any non-terminal state.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch s {
	case EventStatusNone, "":
		return next == EventStatusStarted || next == EventStatusCompleted || next == EventStatusCancelled
	case EventStatusStarted:
		return next == EventStatusCompleted || next == EventStatusCancelled
	}
	return false
}

// BookingRequest is a leader's posted need for a musician at a date and time
type BookingRequest struct {
	ID                 string
	LeaderID           string
	EventDate          time.Time // calendar date, time part ignored
	StartTime          TimeOfDay
	EndTime            TimeOfDay
	Location           string
	RequiredInstrument string
	ExtraAmount        decimal.Decimal
	Status             RequestStatus
	EventStatus        EventStatus
	MusicianID         *string
	// AcceptedBy mirrors MusicianID for older clients that still read it
	AcceptedBy         *string
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
	PenaltyPercentage  int
	PenaltyTier        PenaltyTier
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks the request's identity and time window
func (r *BookingRequest) Validate() error {
	if r.ID == "" {
		return ErrInvalidRequestID
	}
	if r.LeaderID == "" {
		return ErrInvalidUserID
	}
	return r.Slot().Validate()
}

// Slot returns the request's date and time window
func (r *BookingRequest) Slot() Slot {
	return Slot{
		Date:      r.EventDate,
		Start:     r.StartTime,
		End:       r.EndTime,
		RequestID: r.ID,
	}
}

// ScheduledStart combines the event date and start time in loc
func (r *BookingRequest) ScheduledStart(loc *time.Location) time.Time {
	return r.StartTime.On(r.EventDate, loc)
}

// ScheduledEnd combines the event date and end time in loc
func (r *BookingRequest) ScheduledEnd(loc *time.Location) time.Time {
	return r.EndTime.On(r.EventDate, loc)
}

// IsLeader reports whether userID owns the request
func (r *BookingRequest) IsLeader(userID string) bool {
	return userID != "" && r.LeaderID == userID
}

// AssignedMusician returns the committed musician, or "" if none
func (r *BookingRequest) AssignedMusician() string {
	if r.MusicianID != nil {
		return *r.MusicianID
	}
	if r.AcceptedBy != nil {
		return *r.AcceptedBy
	}
	return ""
}

// Window returns the lifecycle view used by the start/complete guards
func (r *BookingRequest) Window(loc *time.Location) EventWindow {
	return EventWindow{
		Start:     r.ScheduledStart(loc),
		End:       r.ScheduledEnd(loc),
		Status:    r.EventStatus,
		StartedAt: r.StartedAt,
	}
}

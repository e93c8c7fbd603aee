package domain

import (
	"time"
)

// Notification event types
const (
	EventOfferCreated     = "offer.created"
	EventOfferSelected    = "offer.selected"
	EventOfferRejected    = "offer.rejected"
	EventRequestAccepted  = "request.accepted"
	EventEventStarted     = "event.started"
	EventEventCompleted   = "event.completed"
	EventRequestCancelled = "request.cancelled"
)

// Aggregate types used on outbox rows
const (
	AggregateRequest = "request"
	AggregateOffer   = "offer"
)

// OfferNotification builds an outbox row about an offer for one recipient
func OfferNotification(eventType, recipientID string, offer *Offer) (*OutboxMessage, error) {
	return NewOutboxMessage(AggregateOffer, offer.ID, eventType, recipientID, map[string]interface{}{
		"offer_id":       offer.ID,
		"request_id":     offer.RequestID,
		"musician_id":    offer.MusicianID,
		"proposed_price": offer.ProposedPrice.String(),
		"status":         offer.Status.String(),
	})
}

// RequestNotification builds an outbox row about a request for one recipient
func RequestNotification(eventType, recipientID string, req *BookingRequest, extra map[string]interface{}) (*OutboxMessage, error) {
	payload := map[string]interface{}{
		"request_id":   req.ID,
		"event_date":   FormatDate(req.EventDate),
		"start_time":   req.StartTime.String(),
		"end_time":     req.EndTime.String(),
		"status":       req.Status.String(),
		"event_status": req.EventStatus.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return NewOutboxMessage(AggregateRequest, req.ID, eventType, recipientID, payload)
}

// Timestamp formats t for notification payloads
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

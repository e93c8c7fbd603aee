package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus represents the status of an offer
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusSelected OfferStatus = "selected"
	OfferStatusRejected OfferStatus = "rejected"
)

// IsValid checks if the status is a valid OfferStatus
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusPending, OfferStatusSelected, OfferStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of OfferStatus
func (s OfferStatus) String() string {
	return string(s)
}

// Offer is a musician's priced proposal against a request.
// Only the engine mutates an offer after creation.
type Offer struct {
	ID            string
	RequestID     string
	MusicianID    string
	ProposedPrice decimal.Decimal
	Message       string
	Status        OfferStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate validates the offer fields
func (o *Offer) Validate() error {
	if o.RequestID == "" {
		return ErrInvalidRequestID
	}
	if o.MusicianID == "" {
		return ErrInvalidMusicianID
	}
	if !o.ProposedPrice.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// IsPending reports whether the offer can still be selected or rejected
func (o *Offer) IsPending() bool {
	return o.Status == OfferStatusPending
}

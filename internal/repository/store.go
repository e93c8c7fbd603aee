package repository

import (
	"context"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
)

// Store groups the per-entity repositories behind one transactional boundary
type Store interface {
	Requests() RequestRepository
	Offers() OfferRepository
	Blocks() BlockRepository
	Transactions() TransactionRepository
	PricingConfigs() PricingConfigRepository
	Musicians() MusicianRepository
	Outbox() OutboxRepository

	// WithinTx runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// EventTransition is a compare-and-swap on a request's event status
type EventTransition struct {
	RequestID string
	From      domain.EventStatus
	To        domain.EventStatus
	At        time.Time
	// CompleteRequest also moves the request status to completed
	CompleteRequest bool
}

// CancelTransition cancels a non-terminal request and records the penalty
type CancelTransition struct {
	RequestID string
	Reason    string
	Penalty   domain.Penalty
	At        time.Time
}

// RequestRepository defines the interface for booking request data access
type RequestRepository interface {
	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id string) (*domain.BookingRequest, error)

	// GetForUpdate retrieves a request and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, id string) (*domain.BookingRequest, error)

	// Create inserts a new request
	Create(ctx context.Context, req *domain.BookingRequest) error

	// FindCommittedSlots returns slots of requests directly accepted by or
	// completed with the musician on date, excluding one request
	FindCommittedSlots(ctx context.Context, query SlotQuery) ([]domain.Slot, error)

	// MarkAccepted moves an active request to accepted with its musician
	MarkAccepted(ctx context.Context, requestID, musicianID string, at time.Time) error

	// TransitionEvent applies an event status compare-and-swap
	TransitionEvent(ctx context.Context, t EventTransition) error

	// Cancel moves a non-terminal request to cancelled
	Cancel(ctx context.Context, t CancelTransition) error
}

// OfferFilter enumerates the recognized offer list filters
type OfferFilter struct {
	RequestID  string
	MusicianID string
	Status     domain.OfferStatus
	Limit      int
}

// OfferRepository defines the interface for offer data access
type OfferRepository interface {
	// GetByID retrieves an offer by ID
	GetByID(ctx context.Context, id string) (*domain.Offer, error)

	// Create inserts a pending offer; a second offer by the same
	// musician on a request returns domain.ErrDuplicateOffer
	Create(ctx context.Context, offer *domain.Offer) error

	// List returns offers matching filter, oldest first
	List(ctx context.Context, filter OfferFilter) ([]*domain.Offer, error)

	// ExistsForMusician reports whether the musician already offered on the request
	ExistsForMusician(ctx context.Context, requestID, musicianID string) (bool, error)

	// MarkSelected moves a pending offer to selected
	MarkSelected(ctx context.Context, offerID string, at time.Time) error

	// RejectSiblings rejects every other pending offer on the request and returns them
	RejectSiblings(ctx context.Context, requestID, selectedOfferID string, at time.Time) ([]*domain.Offer, error)

	// Reject moves a single pending offer to rejected
	Reject(ctx context.Context, offerID string, at time.Time) error

	// RejectPendingByRequest rejects all pending offers on the request and returns them
	RejectPendingByRequest(ctx context.Context, requestID string, at time.Time) ([]*domain.Offer, error)

	// FindSelected returns the selected offer for a request
	FindSelected(ctx context.Context, requestID string) (*domain.Offer, error)
}

// SlotQuery selects a musician's committed slots on one date
type SlotQuery struct {
	MusicianID       string
	Date             time.Time
	ExcludeRequestID string
}

// BlockRepository defines the interface for availability block data access
type BlockRepository interface {
	// Create inserts a block
	Create(ctx context.Context, block *domain.AvailabilityBlock) error

	// FindActive returns non-released blocks matching the query
	FindActive(ctx context.Context, query SlotQuery) ([]*domain.AvailabilityBlock, error)

	// ReleaseByRequest releases the blocks held for a request
	ReleaseByRequest(ctx context.Context, requestID string, at time.Time) (int64, error)
}

// TransactionRepository defines the interface for ledger data access
type TransactionRepository interface {
	// Create inserts a transaction
	Create(ctx context.Context, tx *domain.Transaction) error

	// ListByRequest returns the transactions posted for a request
	ListByRequest(ctx context.Context, requestID string) ([]*domain.Transaction, error)
}

// PricingConfigRepository defines the interface for versioned pricing configs
type PricingConfigRepository interface {
	// GetActive returns the active config or domain.ErrPricingConfigNotFound
	GetActive(ctx context.Context) (*domain.PricingConfig, error)

	// Activate deactivates the current version and inserts cfg as the next one
	Activate(ctx context.Context, cfg *domain.PricingConfig) error

	// ListHistory returns versions newest first
	ListHistory(ctx context.Context, limit int) ([]*domain.PricingConfig, error)
}

// MusicianRepository is the engine's read view of the user directory
type MusicianRepository interface {
	// GetByID retrieves a musician by ID
	GetByID(ctx context.Context, id string) (*domain.Musician, error)

	// Upsert inserts or refreshes a musician from the directory
	Upsert(ctx context.Context, m *domain.Musician) error

	// Lock serialises committing transactions for one musician
	Lock(ctx context.Context, id string) error
}

// OutboxRepository defines the interface for outbox data access
type OutboxRepository interface {
	// Create creates a new outbox message
	Create(ctx context.Context, msg *domain.OutboxMessage) error

	// GetPendingMessages gets pending messages to be published
	GetPendingMessages(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)

	// GetFailedMessages gets failed messages that can be retried
	GetFailedMessages(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)

	// MarkAsPublished marks a message as successfully published
	MarkAsPublished(ctx context.Context, id string) error

	// MarkAsFailed marks a message as failed
	MarkAsFailed(ctx context.Context, id string, errMsg string) error

	// DeletePublished deletes published messages older than the retention period
	DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

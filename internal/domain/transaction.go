package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger movement
type TransactionType string

const (
	TransactionTypeEarning    TransactionType = "earning"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeBonus      TransactionType = "bonus"
)

// TransactionStatus represents the settlement state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is the system of record for musician income
type Transaction struct {
	ID          string
	UserID      string
	RequestID   *string
	OfferID     *string
	Type        TransactionType
	Amount      decimal.Decimal
	Currency    string
	Status      TransactionStatus
	Description string
	CreatedAt   time.Time
}

// NewEarning builds a completed earning for a committed booking
func NewEarning(musicianID, requestID string, offerID *string, amount decimal.Decimal, currency string, now time.Time) *Transaction {
	return &Transaction{
		UserID:      musicianID,
		RequestID:   &requestID,
		OfferID:     offerID,
		Type:        TransactionTypeEarning,
		Amount:      amount,
		Currency:    currency,
		Status:      TransactionStatusCompleted,
		Description: "Earning for booking " + requestID,
		CreatedAt:   now,
	}
}

// NewBonus builds a completed bonus from the leader's extra amount
func NewBonus(musicianID, requestID string, amount decimal.Decimal, currency string, now time.Time) *Transaction {
	return &Transaction{
		UserID:      musicianID,
		RequestID:   &requestID,
		Type:        TransactionTypeBonus,
		Amount:      amount,
		Currency:    currency,
		Status:      TransactionStatusCompleted,
		Description: "Leader bonus for booking " + requestID,
		CreatedAt:   now,
	}
}

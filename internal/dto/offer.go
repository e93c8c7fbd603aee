package dto

import (
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateOfferRequest represents a musician's offer on a request
type CreateOfferRequest struct {
	ProposedPrice decimal.Decimal `json:"proposed_price"`
	Message       string          `json:"message,omitempty"`
}

// ListOffersQuery represents offer list filters from the query string
type ListOffersQuery struct {
	MusicianID string `form:"musician_id"`
	Status     string `form:"status"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// OfferResponse represents an offer in API response
type OfferResponse struct {
	ID            string          `json:"id"`
	RequestID     string          `json:"request_id"`
	MusicianID    string          `json:"musician_id"`
	ProposedPrice decimal.Decimal `json:"proposed_price"`
	Message       string          `json:"message,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OfferFromDomain converts a domain Offer to OfferResponse
func OfferFromDomain(o *domain.Offer) *OfferResponse {
	return &OfferResponse{
		ID:            o.ID,
		RequestID:     o.RequestID,
		MusicianID:    o.MusicianID,
		ProposedPrice: o.ProposedPrice,
		Message:       o.Message,
		Status:        o.Status.String(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// OffersFromDomain converts a list of domain offers
func OffersFromDomain(offers []*domain.Offer) []*OfferResponse {
	out := make([]*OfferResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, OfferFromDomain(o))
	}
	return out
}

// ListOffersResponse wraps a list of offers
type ListOffersResponse struct {
	Offers []*OfferResponse `json:"offers"`
	Count  int              `json:"count"`
}

// TransactionResponse represents a ledger entry in API response
type TransactionResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	RequestID   *string         `json:"request_id,omitempty"`
	OfferID     *string         `json:"offer_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain Transaction
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		RequestID:   t.RequestID,
		OfferID:     t.OfferID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Currency:    t.Currency,
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// CommitmentResponse is returned when a musician is committed to a request,
// through offer selection or direct acceptance
type CommitmentResponse struct {
	Request          *RequestResponse          `json:"request"`
	Offer            *OfferResponse            `json:"offer,omitempty"`
	RejectedOfferIDs []string                  `json:"rejected_offer_ids"`
	Transactions     []*TransactionResponse    `json:"transactions"`
	Pricing          *PriceCalculationResponse `json:"pricing"`
}

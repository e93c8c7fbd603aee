package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type postgresOfferRepository struct {
	q querier
}

const offerColumns = `id, request_id, musician_id, proposed_price::text, message, status, created_at, updated_at`

// Create inserts a pending offer
func (r *postgresOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	if offer.Status == "" {
		offer.Status = domain.OfferStatusPending
	}
	now := time.Now()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	offer.UpdatedAt = offer.CreatedAt

	query := `
		INSERT INTO offers (
			id, request_id, musician_id, proposed_price, message, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4::numeric, $5, $6, $7, $8
		)
	`

	_, err := r.q.Exec(ctx, query,
		offer.ID,
		offer.RequestID,
		offer.MusicianID,
		offer.ProposedPrice.String(),
		offer.Message,
		offer.Status.String(),
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateOffer
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// GetByID retrieves an offer by ID
func (r *postgresOfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// List returns offers matching filter, oldest first
func (r *postgresOfferRepository) List(ctx context.Context, filter OfferFilter) ([]*domain.Offer, error) {
	var (
		conds []string
		args  []any
	)
	if filter.RequestID != "" {
		args = append(args, filter.RequestID)
		conds = append(conds, fmt.Sprintf("request_id = $%d", len(args)))
	}
	if filter.MusicianID != "" {
		args = append(args, filter.MusicianID)
		conds = append(conds, fmt.Sprintf("musician_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status.String())
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + offerColumns + ` FROM offers`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryOffers(ctx, query, args...)
}

// ExistsForMusician reports whether the musician already offered on the request
func (r *postgresOfferRepository) ExistsForMusician(ctx context.Context, requestID, musicianID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM offers WHERE request_id = $1 AND musician_id = $2)",
		requestID, musicianID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing offer: %w", err)
	}
	return exists, nil
}

// MarkSelected moves a pending offer to selected
func (r *postgresOfferRepository) MarkSelected(ctx context.Context, offerID string, at time.Time) error {
	return r.transition(ctx, offerID, domain.OfferStatusSelected, at)
}

// Reject moves a single pending offer to rejected
func (r *postgresOfferRepository) Reject(ctx context.Context, offerID string, at time.Time) error {
	return r.transition(ctx, offerID, domain.OfferStatusRejected, at)
}

func (r *postgresOfferRepository) transition(ctx context.Context, offerID string, to domain.OfferStatus, at time.Time) error {
	query := `
		UPDATE offers SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, offerID, to.String(), at)
	if err != nil {
		if to == domain.OfferStatusSelected && isUniqueViolation(err) {
			return domain.ErrRequestNotActive
		}
		return fmt.Errorf("failed to update offer status: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM offers WHERE id = $1)", offerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check offer existence: %w", err)
		}
		if !exists {
			return domain.ErrOfferNotFound
		}
		return domain.ErrOfferNotPending
	}
	return nil
}

// RejectSiblings rejects every other pending offer on the request
func (r *postgresOfferRepository) RejectSiblings(ctx context.Context, requestID, selectedOfferID string, at time.Time) ([]*domain.Offer, error) {
	query := `
		UPDATE offers SET status = 'rejected', updated_at = $3
		WHERE request_id = $1 AND id <> $2 AND status = 'pending'
		RETURNING ` + offerColumns

	return r.queryOffers(ctx, query, requestID, selectedOfferID, at)
}

// RejectPendingByRequest rejects all pending offers on the request
func (r *postgresOfferRepository) RejectPendingByRequest(ctx context.Context, requestID string, at time.Time) ([]*domain.Offer, error) {
	query := `
		UPDATE offers SET status = 'rejected', updated_at = $2
		WHERE request_id = $1 AND status = 'pending'
		RETURNING ` + offerColumns

	return r.queryOffers(ctx, query, requestID, at)
}

// FindSelected returns the selected offer for a request
func (r *postgresOfferRepository) FindSelected(ctx context.Context, requestID string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE request_id = $1 AND status = 'selected'`

	offer, err := scanOffer(r.q.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find selected offer: %w", err)
	}
	return offer, nil
}

func (r *postgresOfferRepository) queryOffers(ctx context.Context, query string, args ...any) ([]*domain.Offer, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}
	return offers, nil
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var (
		offer   domain.Offer
		price   string
		message *string
		status  string
	)

	err := row.Scan(
		&offer.ID,
		&offer.RequestID,
		&offer.MusicianID,
		&price,
		&message,
		&status,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	offer.Message = nullableString(message)
	offer.Status = domain.OfferStatus(status)
	if offer.ProposedPrice, err = parseDecimal(price); err != nil {
		return nil, err
	}
	return &offer, nil
}

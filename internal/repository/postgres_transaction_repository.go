package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/google/uuid"
)

type postgresTransactionRepository struct {
	q querier
}

// Create inserts a transaction
func (r *postgresTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO transactions (
			id, user_id, request_id, offer_id, type, amount, currency, status, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10)
	`

	_, err := r.q.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.RequestID,
		tx.OfferID,
		string(tx.Type),
		tx.Amount.String(),
		tx.Currency,
		string(tx.Status),
		tx.Description,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListByRequest returns the transactions posted for a request
func (r *postgresTransactionRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, user_id, request_id, offer_id, type, amount::text, currency, status, description, created_at
		FROM transactions
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var (
			t              domain.Transaction
			txType, status string
			amount         string
			description    *string
		)
		err := rows.Scan(&t.ID, &t.UserID, &t.RequestID, &t.OfferID, &txType, &amount, &t.Currency, &status, &description, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = domain.TransactionType(txType)
		t.Status = domain.TransactionStatus(status)
		t.Description = nullableString(description)
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type postgresBlockRepository struct {
	q querier
}

// Create inserts a block
func (r *postgresBlockRepository) Create(ctx context.Context, block *domain.AvailabilityBlock) error {
	if block.ID == "" {
		block.ID = uuid.New().String()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO availability_blocks (
			id, musician_id, block_date, start_time, end_time, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		block.ID,
		block.MusicianID,
		toPgDate(block.Date),
		toPgTime(block.StartTime),
		toPgTime(block.EndTime),
		block.RequestID,
		block.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability block: %w", err)
	}
	return nil
}

// FindActive returns non-released blocks for a musician on a date
func (r *postgresBlockRepository) FindActive(ctx context.Context, q SlotQuery) ([]*domain.AvailabilityBlock, error) {
	query := `
		SELECT id, musician_id, block_date, start_time, end_time, request_id, created_at
		FROM availability_blocks
		WHERE musician_id = $1
		  AND block_date = $2
		  AND released_at IS NULL
		  AND ($3::text = '' OR request_id IS NULL OR request_id::text <> $3::text)
		ORDER BY start_time ASC
	`

	rows, err := r.q.Query(ctx, query, q.MusicianID, toPgDate(q.Date), q.ExcludeRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*domain.AvailabilityBlock
	for rows.Next() {
		var (
			b          domain.AvailabilityBlock
			start, end pgtype.Time
		)
		if err := rows.Scan(&b.ID, &b.MusicianID, &b.Date, &start, &end, &b.RequestID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability block: %w", err)
		}
		b.StartTime = fromPgTime(start)
		b.EndTime = fromPgTime(end)
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability blocks: %w", err)
	}
	return blocks, nil
}

// ReleaseByRequest releases the blocks held for a request
func (r *postgresBlockRepository) ReleaseByRequest(ctx context.Context, requestID string, at time.Time) (int64, error) {
	result, err := r.q.Exec(ctx,
		"UPDATE availability_blocks SET released_at = $2 WHERE request_id = $1 AND released_at IS NULL",
		requestID, at,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to release availability blocks: %w", err)
	}
	return result.RowsAffected(), nil
}

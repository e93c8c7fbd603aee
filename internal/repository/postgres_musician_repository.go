package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type postgresMusicianRepository struct {
	q querier
}

// GetByID retrieves a musician by ID
func (r *postgresMusicianRepository) GetByID(ctx context.Context, id string) (*domain.Musician, error) {
	query := `SELECT id, name, instruments, status FROM musicians WHERE id = $1`

	var (
		m      domain.Musician
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Instruments, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMusicianNotFound
		}
		return nil, fmt.Errorf("failed to get musician: %w", err)
	}
	m.Status = domain.MusicianStatus(status)
	return &m, nil
}

// Upsert inserts a musician or refreshes its directory fields
func (r *postgresMusicianRepository) Upsert(ctx context.Context, m *domain.Musician) error {
	if m == nil || m.ID == "" {
		return domain.ErrInvalidMusicianID
	}
	instruments := m.Instruments
	if instruments == nil {
		instruments = []string{}
	}
	status := m.Status
	if status == "" {
		status = domain.MusicianStatusActive
	}

	query := `
		INSERT INTO musicians (id, name, instruments, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, instruments = EXCLUDED.instruments, status = EXCLUDED.status
	`
	if _, err := r.q.Exec(ctx, query, m.ID, m.Name, instruments, string(status)); err != nil {
		return fmt.Errorf("failed to upsert musician: %w", err)
	}
	return nil
}

// Lock takes a transaction-scoped advisory lock on the musician id
func (r *postgresMusicianRepository) Lock(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", id); err != nil {
		return fmt.Errorf("failed to lock musician: %w", err)
	}
	return nil
}

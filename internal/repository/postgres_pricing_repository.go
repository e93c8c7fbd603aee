package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type postgresPricingConfigRepository struct {
	q querier
}

const pricingColumns = `
	id, version, base_hourly_rate::text, minimum_hours::text, maximum_hours::text,
	platform_commission::text, service_fee::text, tax_rate::text,
	currency, is_active, created_by, created_at`

// GetActive returns the active config
func (r *postgresPricingConfigRepository) GetActive(ctx context.Context) (*domain.PricingConfig, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing_configs WHERE is_active LIMIT 1`

	cfg, err := scanPricingConfig(r.q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPricingConfigNotFound
		}
		return nil, fmt.Errorf("failed to get active pricing config: %w", err)
	}
	return cfg, nil
}

// Activate deactivates the current version and inserts cfg as the next one.
// Must run inside a transaction so the two statements apply together.
func (r *postgresPricingConfigRepository) Activate(ctx context.Context, cfg *domain.PricingConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}

	// serialise concurrent updates on the singleton row set
	if _, err := r.q.Exec(ctx, "LOCK TABLE pricing_configs IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("failed to lock pricing configs: %w", err)
	}

	var current int
	if err := r.q.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM pricing_configs").Scan(&current); err != nil {
		return fmt.Errorf("failed to read pricing config version: %w", err)
	}

	if _, err := r.q.Exec(ctx, "UPDATE pricing_configs SET is_active = FALSE WHERE is_active"); err != nil {
		return fmt.Errorf("failed to deactivate pricing config: %w", err)
	}

	cfg.Version = current + 1
	cfg.IsActive = true

	query := `
		INSERT INTO pricing_configs (
			id, version, base_hourly_rate, minimum_hours, maximum_hours,
			platform_commission, service_fee, tax_rate, currency, is_active,
			created_by, created_at
		) VALUES (
			$1, $2, $3::numeric, $4::numeric, $5::numeric,
			$6::numeric, $7::numeric, $8::numeric, $9, TRUE, $10, $11
		)
	`

	_, err := r.q.Exec(ctx, query,
		cfg.ID,
		cfg.Version,
		cfg.BaseHourlyRate.String(),
		cfg.MinimumHours.String(),
		cfg.MaximumHours.String(),
		cfg.PlatformCommission.String(),
		cfg.ServiceFee.String(),
		cfg.TaxRate.String(),
		cfg.Currency,
		cfg.CreatedBy,
		cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pricing config: %w", err)
	}
	return nil
}

// ListHistory returns versions newest first
func (r *postgresPricingConfigRepository) ListHistory(ctx context.Context, limit int) ([]*domain.PricingConfig, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + pricingColumns + ` FROM pricing_configs ORDER BY version DESC LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing configs: %w", err)
	}
	defer rows.Close()

	var configs []*domain.PricingConfig
	for rows.Next() {
		cfg, err := scanPricingConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pricing config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pricing configs: %w", err)
	}
	return configs, nil
}

func scanPricingConfig(row pgx.Row) (*domain.PricingConfig, error) {
	var (
		cfg                      domain.PricingConfig
		rate, minHours, maxHours string
		commission, fee, tax     string
		createdBy                *string
	)

	err := row.Scan(
		&cfg.ID,
		&cfg.Version,
		&rate,
		&minHours,
		&maxHours,
		&commission,
		&fee,
		&tax,
		&cfg.Currency,
		&cfg.IsActive,
		&createdBy,
		&cfg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.CreatedBy = nullableString(createdBy)

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{rate, &cfg.BaseHourlyRate},
		{minHours, &cfg.MinimumHours},
		{maxHours, &cfg.MaximumHours},
		{commission, &cfg.PlatformCommission},
		{fee, &cfg.ServiceFee},
		{tax, &cfg.TaxRate},
	} {
		v, err := parseDecimal(f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return &cfg, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	pricingCacheKey        = "engine:pricing:active"
	defaultPricingCacheTTL = 5 * time.Minute
)

// PricingCache caches the active pricing config
type PricingCache interface {
	Get(ctx context.Context) (*domain.PricingConfig, error)
	Set(ctx context.Context, cfg *domain.PricingConfig) error
	Invalidate(ctx context.Context) error
}

// ErrCacheMiss is returned by PricingCache.Get when nothing is cached
var ErrCacheMiss = errors.New("pricing config not cached")

// RedisPricingCache implements PricingCache using Redis
type RedisPricingCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisPricingCache creates a new RedisPricingCache
func NewRedisPricingCache(client redis.Cmdable, ttl time.Duration) *RedisPricingCache {
	if ttl <= 0 {
		ttl = defaultPricingCacheTTL
	}
	return &RedisPricingCache{client: client, ttl: ttl}
}

type cachedPricingConfig struct {
	ID                 string          `json:"id"`
	Version            int             `json:"version"`
	BaseHourlyRate     decimal.Decimal `json:"base_hourly_rate"`
	MinimumHours       decimal.Decimal `json:"minimum_hours"`
	MaximumHours       decimal.Decimal `json:"maximum_hours"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	Currency           string          `json:"currency"`
	CreatedBy          string          `json:"created_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Get returns the cached config or ErrCacheMiss
func (c *RedisPricingCache) Get(ctx context.Context) (*domain.PricingConfig, error) {
	raw, err := c.client.Get(ctx, pricingCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read pricing cache: %w", err)
	}

	var cached cachedPricingConfig
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode pricing cache: %w", err)
	}

	return &domain.PricingConfig{
		ID:                 cached.ID,
		Version:            cached.Version,
		BaseHourlyRate:     cached.BaseHourlyRate,
		MinimumHours:       cached.MinimumHours,
		MaximumHours:       cached.MaximumHours,
		PlatformCommission: cached.PlatformCommission,
		ServiceFee:         cached.ServiceFee,
		TaxRate:            cached.TaxRate,
		Currency:           cached.Currency,
		IsActive:           true,
		CreatedBy:          cached.CreatedBy,
		CreatedAt:          cached.CreatedAt,
	}, nil
}

// Set stores cfg as the active config
func (c *RedisPricingCache) Set(ctx context.Context, cfg *domain.PricingConfig) error {
	raw, err := json.Marshal(cachedPricingConfig{
		ID:                 cfg.ID,
		Version:            cfg.Version,
		BaseHourlyRate:     cfg.BaseHourlyRate,
		MinimumHours:       cfg.MinimumHours,
		MaximumHours:       cfg.MaximumHours,
		PlatformCommission: cfg.PlatformCommission,
		ServiceFee:         cfg.ServiceFee,
		TaxRate:            cfg.TaxRate,
		Currency:           cfg.Currency,
		CreatedBy:          cfg.CreatedBy,
		CreatedAt:          cfg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode pricing config: %w", err)
	}

	if err := c.client.Set(ctx, pricingCacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write pricing cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached config
func (c *RedisPricingCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, pricingCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate pricing cache: %w", err)
	}
	return nil
}

// Ensure RedisPricingCache implements PricingCache
var _ PricingCache = (*RedisPricingCache)(nil)

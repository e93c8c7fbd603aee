package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const pricingHistoryLimit = 10

// PricingService defines the interface for pricing quotes and config management
type PricingService interface {
	// CalculatePrice quotes a time window against the active config
	CalculatePrice(ctx context.Context, req *dto.CalculatePriceRequest) (*dto.PriceCalculationResponse, error)

	// GetPricingConfig returns the active config and recent versions
	GetPricingConfig(ctx context.Context) (*dto.PricingHistoryResponse, error)

	// UpdatePricingConfig stores a new active version
	UpdatePricingConfig(ctx context.Context, userID string, req *dto.UpdatePricingConfigRequest) (*dto.PricingConfigResponse, error)

	// ActiveConfig returns the active config, falling back to the defaults
	// when none has been stored
	ActiveConfig(ctx context.Context) (*domain.PricingConfig, error)
}

// pricingService implements PricingService
type pricingService struct {
	store             repository.Store
	cache             repository.PricingCache
	enforceHourBounds bool
	defaultCurrency   string
	log               *logger.Logger
}

// NewPricingService creates a new pricing service. cache may be nil.
func NewPricingService(store repository.Store, cache repository.PricingCache, cfg *EngineConfig) PricingService {
	c := normalizeEngineConfig(cfg)
	return &pricingService{
		store:             store,
		cache:             cache,
		enforceHourBounds: c.EnforceHourBounds,
		defaultCurrency:   c.DefaultCurrency,
		log:               c.Logger,
	}
}

// ActiveConfig reads through the cache
func (s *pricingService) ActiveConfig(ctx context.Context) (*domain.PricingConfig, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.active_config")
	defer span.End()

	if s.cache != nil {
		cfg, err := s.cache.Get(ctx)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cfg, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.log.Warn("pricing cache read failed", zap.Error(err))
		}
	}

	cfg, err := s.store.PricingConfigs().GetActive(ctx)
	if errors.Is(err, domain.ErrPricingConfigNotFound) {
		cfg = domain.DefaultPricingConfig()
		cfg.Currency = s.defaultCurrency
		return cfg, nil
	}
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to load pricing config: %w", err), "load failed")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cfg); err != nil {
			s.log.Warn("pricing cache write failed", zap.Error(err))
		}
	}
	span.SetAttributes(attribute.Int("config_version", cfg.Version))
	return cfg, nil
}

// CalculatePrice quotes a window; hour bounds are advisory unless enforced
func (s *pricingService) CalculatePrice(ctx context.Context, req *dto.CalculatePriceRequest) (*dto.PriceCalculationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.calculate")
	defer span.End()

	if req == nil {
		return nil, failSpan(span, domain.ErrInvalidTimeFormat, "empty request")
	}
	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, failSpan(span, err, "invalid start_time")
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, failSpan(span, err, "invalid end_time")
	}

	cfg, err := s.ActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	calc, err := s.quote(start, end, req.CustomRate, cfg)
	if err != nil {
		return nil, failSpan(span, err, "calculation rejected")
	}
	return dto.PriceFromDomain(calc), nil
}

func (s *pricingService) quote(start, end domain.TimeOfDay, customRate *decimal.Decimal, cfg *domain.PricingConfig) (*domain.PriceCalculation, error) {
	calc, err := domain.CalculatePrice(start, end, customRate, cfg)
	if err != nil {
		return nil, err
	}
	if s.enforceHourBounds && !calc.WithinHourBounds {
		return nil, domain.ErrHoursOutOfRange
	}
	return calc, nil
}

// GetPricingConfig returns the active config and version history
func (s *pricingService) GetPricingConfig(ctx context.Context) (*dto.PricingHistoryResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.get_config")
	defer span.End()

	active, err := s.ActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.store.PricingConfigs().ListHistory(ctx, pricingHistoryLimit)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to load pricing history: %w", err), "history failed")
	}

	resp := &dto.PricingHistoryResponse{Active: dto.PricingConfigFromDomain(active)}
	for _, c := range history {
		resp.History = append(resp.History, dto.PricingConfigFromDomain(c))
	}
	return resp, nil
}

// UpdatePricingConfig validates and activates a new version, then drops the cached one
func (s *pricingService) UpdatePricingConfig(ctx context.Context, userID string, req *dto.UpdatePricingConfigRequest) (*dto.PricingConfigResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.update_config")
	defer span.End()

	if userID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid user_id")
	}
	if req == nil {
		return nil, failSpan(span, domain.ErrInvalidPricingConfig, "empty request")
	}

	cfg := req.ToDomain(userID)
	if cfg.Currency == "" {
		cfg.Currency = s.defaultCurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, failSpan(span, err, "invalid config")
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.PricingConfigs().Activate(ctx, cfg)
	})
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to activate pricing config: %w", err), "activate failed")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("pricing cache invalidation failed", zap.Error(err))
		}
	}

	span.SetAttributes(attribute.Int("config_version", cfg.Version))
	s.log.Info("pricing config activated",
		zap.Int("version", cfg.Version),
		zap.String("created_by", userID),
	)
	return dto.PricingConfigFromDomain(cfg), nil
}

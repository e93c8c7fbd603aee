package dto

import (
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculatePriceRequest represents a price quote for a time window
type CalculatePriceRequest struct {
	StartTime  string           `json:"start_time" binding:"required"`
	EndTime    string           `json:"end_time" binding:"required"`
	CustomRate *decimal.Decimal `json:"custom_rate,omitempty"`
}

// PriceCalculationResponse represents the money split of a booking
type PriceCalculationResponse struct {
	Hours              decimal.Decimal `json:"hours"`
	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
	MusicianEarnings   decimal.Decimal `json:"musician_earnings"`
	Currency           string          `json:"currency"`
	ConfigVersion      int             `json:"config_version"`
	WithinHourBounds   bool            `json:"within_hour_bounds"`
}

// PriceFromDomain converts a domain PriceCalculation
func PriceFromDomain(c *domain.PriceCalculation) *PriceCalculationResponse {
	return &PriceCalculationResponse{
		Hours:              c.Hours,
		HourlyRate:         c.HourlyRate,
		Subtotal:           c.Subtotal,
		PlatformCommission: c.PlatformCommission,
		ServiceFee:         c.ServiceFee,
		Tax:                c.Tax,
		Total:              c.Total,
		MusicianEarnings:   c.MusicianEarnings,
		Currency:           c.Currency,
		ConfigVersion:      c.ConfigVersion,
		WithinHourBounds:   c.WithinHourBounds,
	}
}

// UpdatePricingConfigRequest represents a new pricing config version
type UpdatePricingConfigRequest struct {
	BaseHourlyRate     decimal.Decimal `json:"base_hourly_rate"`
	MinimumHours       decimal.Decimal `json:"minimum_hours"`
	MaximumHours       decimal.Decimal `json:"maximum_hours"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	Currency           string          `json:"currency,omitempty"`
}

// ToDomain converts the request to an inactive domain PricingConfig
func (r *UpdatePricingConfigRequest) ToDomain(createdBy string) *domain.PricingConfig {
	return &domain.PricingConfig{
		BaseHourlyRate:     r.BaseHourlyRate,
		MinimumHours:       r.MinimumHours,
		MaximumHours:       r.MaximumHours,
		PlatformCommission: r.PlatformCommission,
		ServiceFee:         r.ServiceFee,
		TaxRate:            r.TaxRate,
		Currency:           r.Currency,
		CreatedBy:          createdBy,
	}
}

// PricingConfigResponse represents a pricing config version
type PricingConfigResponse struct {
	ID                 string          `json:"id,omitempty"`
	Version            int             `json:"version"`
	BaseHourlyRate     decimal.Decimal `json:"base_hourly_rate"`
	MinimumHours       decimal.Decimal `json:"minimum_hours"`
	MaximumHours       decimal.Decimal `json:"maximum_hours"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	Currency           string          `json:"currency"`
	IsActive           bool            `json:"is_active"`
	CreatedBy          string          `json:"created_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// PricingConfigFromDomain converts a domain PricingConfig
func PricingConfigFromDomain(c *domain.PricingConfig) *PricingConfigResponse {
	return &PricingConfigResponse{
		ID:                 c.ID,
		Version:            c.Version,
		BaseHourlyRate:     c.BaseHourlyRate,
		MinimumHours:       c.MinimumHours,
		MaximumHours:       c.MaximumHours,
		PlatformCommission: c.PlatformCommission,
		ServiceFee:         c.ServiceFee,
		TaxRate:            c.TaxRate,
		Currency:           c.Currency,
		IsActive:           c.IsActive,
		CreatedBy:          c.CreatedBy,
		CreatedAt:          c.CreatedAt,
	}
}

// PricingHistoryResponse lists pricing config versions newest first
type PricingHistoryResponse struct {
	Active  *PricingConfigResponse   `json:"active"`
	History []*PricingConfigResponse `json:"history,omitempty"`
}

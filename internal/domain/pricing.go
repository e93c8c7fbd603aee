package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingConfig is one version of the platform's pricing rules.
// Exactly one version is active at a time; history is append-only.
type PricingConfig struct {
	ID                 string
	Version            int
	BaseHourlyRate     decimal.Decimal
	MinimumHours       decimal.Decimal
	MaximumHours       decimal.Decimal
	PlatformCommission decimal.Decimal // fraction 0..1
	ServiceFee         decimal.Decimal // flat amount
	TaxRate            decimal.Decimal // fraction 0..1
	Currency           string
	IsActive           bool
	CreatedBy          string
	CreatedAt          time.Time
}

// DefaultPricingConfig is used when no row has been stored yet
func DefaultPricingConfig() *PricingConfig {
	return &PricingConfig{
		Version:            0,
		BaseHourlyRate:     decimal.NewFromInt(500),
		MinimumHours:       decimal.NewFromInt(1),
		MaximumHours:       decimal.NewFromInt(12),
		PlatformCommission: decimal.RequireFromString("0.15"),
		ServiceFee:         decimal.NewFromInt(100),
		TaxRate:            decimal.RequireFromString("0.18"),
		Currency:           "DOP",
		IsActive:           true,
	}
}

var one = decimal.NewFromInt(1)

// Validate checks rates and bounds
func (c *PricingConfig) Validate() error {
	if !c.BaseHourlyRate.IsPositive() {
		return ErrInvalidPricingConfig
	}
	if c.PlatformCommission.IsNegative() || c.PlatformCommission.GreaterThan(one) {
		return ErrInvalidPricingConfig
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(one) {
		return ErrInvalidPricingConfig
	}
	if c.ServiceFee.IsNegative() {
		return ErrInvalidPricingConfig
	}
	if c.MinimumHours.IsNegative() || c.MaximumHours.LessThan(c.MinimumHours) {
		return ErrInvalidPricingConfig
	}
	if len(c.Currency) != 3 {
		return ErrInvalidPricingConfig
	}
	return nil
}

// WithinHourBounds reports whether hours is inside [MinimumHours, MaximumHours]
func (c *PricingConfig) WithinHourBounds(hours decimal.Decimal) bool {
	if hours.LessThan(c.MinimumHours) {
		return false
	}
	if c.MaximumHours.IsPositive() && hours.GreaterThan(c.MaximumHours) {
		return false
	}
	return true
}

// PriceCalculation is the derived money split for a booking.
// Total is what the leader pays; deductions come out of the musician's side.
type PriceCalculation struct {
	Hours              decimal.Decimal
	HourlyRate         decimal.Decimal
	Subtotal           decimal.Decimal
	PlatformCommission decimal.Decimal
	ServiceFee         decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
	MusicianEarnings   decimal.Decimal
	Currency           string
	ConfigVersion      int
	WithinHourBounds   bool
}

const moneyPlaces = 2

// HoursBetween returns fractional hours between two times of day
func HoursBetween(start, end TimeOfDay) decimal.Decimal {
	return decimal.NewFromInt(int64(end.Minutes() - start.Minutes())).Div(decimal.NewFromInt(60))
}

// CalculatePrice prices the window [start, end) against cfg. customRate
// overrides the configured hourly rate when non-nil.
func CalculatePrice(start, end TimeOfDay, customRate *decimal.Decimal, cfg *PricingConfig) (*PriceCalculation, error) {
	if cfg == nil {
		return nil, ErrPricingConfigNotFound
	}
	if end <= start {
		return nil, ErrInvalidTimeRange
	}

	rate := cfg.BaseHourlyRate
	if customRate != nil {
		if !customRate.IsPositive() {
			return nil, ErrInvalidRate
		}
		rate = *customRate
	}

	hours := HoursBetween(start, end)
	subtotal := hours.Mul(rate).Round(moneyPlaces)

	calc := SplitAmount(subtotal, hours, cfg)
	calc.HourlyRate = rate
	return calc, nil
}

// SplitAmount applies the commission, fee and tax split to a fixed subtotal,
// such as an offer's proposed price. Earnings never go below zero.
func SplitAmount(subtotal, hours decimal.Decimal, cfg *PricingConfig) *PriceCalculation {
	commission := subtotal.Mul(cfg.PlatformCommission).Round(moneyPlaces)
	tax := subtotal.Mul(cfg.TaxRate).Round(moneyPlaces)
	fee := cfg.ServiceFee.Round(moneyPlaces)

	earnings := subtotal.Sub(commission).Sub(fee).Sub(tax)
	if earnings.IsNegative() {
		earnings = decimal.Zero
	}

	var rate decimal.Decimal
	if hours.IsPositive() {
		rate = subtotal.Div(hours).Round(moneyPlaces)
	}

	return &PriceCalculation{
		Hours:              hours.Round(4),
		HourlyRate:         rate,
		Subtotal:           subtotal,
		PlatformCommission: commission,
		ServiceFee:         fee,
		Tax:                tax,
		Total:              subtotal,
		MusicianEarnings:   earnings,
		Currency:           cfg.Currency,
		ConfigVersion:      cfg.Version,
		WithinHourBounds:   cfg.WithinHourBounds(hours),
	}
}

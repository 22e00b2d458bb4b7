// Package regulation holds the stateless policy objects layered over the
// matching engine and ledger: price-limit bands, transaction tax and the
// settlement cycle. Rules are constructed once from configuration and shared
// by reference; they carry no mutable state and are safe to use concurrently
// from parallel simulation runs.
package regulation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settlement cycle types
const (
	CycleImmediate = "T+0"
	CycleDelayed   = "T+1"
)

// PriceLimitConfig configures the price-limit band.
type PriceLimitConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
}

// TransactionTaxConfig configures the transaction tax.
type TransactionTaxConfig struct {
	Enabled bool    `yaml:"enabled"`
	Rate    float64 `yaml:"rate"`
	Payer   string  `yaml:"payer"` // buyer, seller or split
}

// SettlementCycleConfig configures the settlement cycle.
type SettlementCycleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // T+0 or T+1
}

// PriceLimitRule validates prices against a band around the reference price.
// When disabled, or when no reference price exists, every price is valid.
type PriceLimitRule struct {
	enabled   bool
	threshold decimal.Decimal
}

// NewPriceLimitRule builds the rule from configuration.
func NewPriceLimitRule(cfg PriceLimitConfig) *PriceLimitRule {
	return &PriceLimitRule{
		enabled:   cfg.Enabled,
		threshold: decimal.NewFromFloat(cfg.Threshold),
	}
}

// Enabled reports whether the band is in force.
func (r *PriceLimitRule) Enabled() bool {
	return r.enabled
}

// Allows reports whether price lies within [ref*(1-t), ref*(1+t)].
func (r *PriceLimitRule) Allows(price, ref decimal.Decimal, refSet bool) bool {
	if !r.enabled || !refSet {
		return true
	}
	one := decimal.NewFromInt(1)
	lower := ref.Mul(one.Sub(r.threshold))
	upper := ref.Mul(one.Add(r.threshold))
	return price.GreaterThanOrEqual(lower) && price.LessThanOrEqual(upper)
}

// TransactionTaxRule computes a proportional tax on executions. When
// disabled, the tax is always zero.
type TransactionTaxRule struct {
	enabled bool
	rate    decimal.Decimal
}

// NewTransactionTaxRule builds the rule from configuration.
func NewTransactionTaxRule(cfg TransactionTaxConfig) *TransactionTaxRule {
	return &TransactionTaxRule{
		enabled: cfg.Enabled,
		rate:    decimal.NewFromFloat(cfg.Rate),
	}
}

// Tax returns price * quantity * rate, or zero when disabled.
func (r *TransactionTaxRule) Tax(price decimal.Decimal, quantity int64) decimal.Decimal {
	if !r.enabled {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(quantity)).Mul(r.rate)
}

// TaxPayer identifies who carries the transaction tax.
type TaxPayer string

// Tax payer assignments
const (
	PayerBuyer  TaxPayer = "buyer"
	PayerSeller TaxPayer = "seller"
	PayerSplit  TaxPayer = "split"
)

// ParseTaxPayer validates a configured payer name. An empty name defaults to
// the seller, matching the usual transaction-tax incidence.
func ParseTaxPayer(name string) (TaxPayer, error) {
	switch TaxPayer(name) {
	case PayerBuyer, PayerSeller, PayerSplit:
		return TaxPayer(name), nil
	case "":
		return PayerSeller, nil
	default:
		return "", fmt.Errorf("unknown transaction tax payer %q", name)
	}
}

// Shares splits a tax amount between buyer and seller according to the payer
// assignment.
func (p TaxPayer) Shares(tax decimal.Decimal) (buyer, seller decimal.Decimal) {
	switch p {
	case PayerBuyer:
		return tax, decimal.Zero
	case PayerSplit:
		half := tax.Div(decimal.NewFromInt(2))
		return half, tax.Sub(half)
	default:
		return decimal.Zero, tax
	}
}

// SettlementCycleRule derives the settlement lag, in periods, applied
// identically to every participant in a run.
type SettlementCycleRule struct {
	lag int
}

// NewSettlementCycleRule builds the rule from configuration. An unknown cycle
// type is a fatal configuration error, raised here rather than at runtime.
func NewSettlementCycleRule(cfg SettlementCycleConfig) (*SettlementCycleRule, error) {
	cycleType := cfg.Type
	if cycleType == "" {
		cycleType = CycleImmediate
	}
	if cycleType != CycleImmediate && cycleType != CycleDelayed {
		return nil, fmt.Errorf("unknown settlement cycle type %q", cfg.Type)
	}

	lag := 0
	if cfg.Enabled && cycleType == CycleDelayed {
		lag = 1
	}
	return &SettlementCycleRule{lag: lag}, nil
}

// Lag returns the settlement lag in periods: 1 when enabled and delayed,
// 0 otherwise.
func (r *SettlementCycleRule) Lag() int {
	return r.lag
}

// Package config defines the scenario configuration consumed by the
// simulator and loads it from YAML documents with optional per-scenario
// overrides.
package config

import (
	"fmt"

	"github.com/erain9/marketsim/pkg/agents"
	"github.com/erain9/marketsim/pkg/assets"
	"github.com/erain9/marketsim/pkg/regulation"
)

// Config is a fully resolved scenario configuration.
type Config struct {
	Random struct {
		Seed int64 `yaml:"seed"`
		Runs int   `yaml:"runs"`
	} `yaml:"random"`

	Time struct {
		PeriodsTotal      int `yaml:"periods_total"`
		RoundsPerPeriod   int `yaml:"rounds_per_period"`
		EvolutionInterval int `yaml:"evolution_interval"`
	} `yaml:"time"`

	Market struct {
		InitialPrice float64 `yaml:"initial_price"`
		TradeUnit    int64   `yaml:"trade_unit"`
	} `yaml:"market"`

	Assets assets.Config `yaml:"assets"`

	Agents struct {
		PopulationTotal int `yaml:"population_total"`
		Endowment       struct {
			InitialCash   float64 `yaml:"initial_cash"`
			InitialShares int64   `yaml:"initial_shares"`
		} `yaml:"endowment"`
		NoiseTrader agents.NoiseConfig `yaml:"noise_trader"`
	} `yaml:"agents"`

	Preference struct {
		Policy string `yaml:"policy"`
	} `yaml:"preference"`

	RiskAversion struct {
		Lambda float64 `yaml:"lambda"`
	} `yaml:"risk_aversion"`

	Regulation struct {
		PriceLimit      regulation.PriceLimitConfig      `yaml:"price_limit"`
		TransactionTax  regulation.TransactionTaxConfig  `yaml:"transaction_tax"`
		SettlementCycle regulation.SettlementCycleConfig `yaml:"settlement_cycle"`

		BudgetPolicy            string `yaml:"budget_policy"`
		WealthIncludesPending   bool   `yaml:"wealth_includes_pending"`
		ExposureIncludesPending bool   `yaml:"exposure_includes_pending"`
	} `yaml:"regulation"`

	Replacement struct {
		Mode                string  `yaml:"mode"` // steady_state, survival or none
		BankruptcyThreshold float64 `yaml:"bankruptcy_threshold"`
	} `yaml:"replacement"`

	Metrics struct {
		MarketReturnType string `yaml:"market_return_type"` // log or simple
	} `yaml:"metrics"`
}

// Default returns the baseline configuration a scenario document is applied
// over.
func Default() *Config {
	cfg := &Config{}

	cfg.Random.Seed = 42
	cfg.Random.Runs = 1

	cfg.Time.PeriodsTotal = 200
	cfg.Time.RoundsPerPeriod = 50
	cfg.Time.EvolutionInterval = 25

	cfg.Market.InitialPrice = 100.0
	cfg.Market.TradeUnit = 1

	cfg.Assets.RiskFree.Rf = 0.02
	cfg.Assets.RiskyDividendAR1.Rho = 0.95
	cfg.Assets.RiskyDividendAR1.DBar = 2.0
	cfg.Assets.RiskyDividendAR1.MuDistParam = 0.1
	cfg.Assets.RiskyDividendAR1.MuParamType = assets.ParamStd
	cfg.Assets.RiskyDividendAR1.InitializationPolicy = assets.InitSteadyStateMean

	cfg.Agents.PopulationTotal = 100
	cfg.Agents.Endowment.InitialCash = 10000.0
	cfg.Agents.Endowment.InitialShares = 10
	cfg.Agents.NoiseTrader.SigmaEpsilon = 0.05
	cfg.Agents.NoiseTrader.NoiseMode = agents.BiasAdditive
	cfg.Agents.NoiseTrader.PerceivedVariance = 0.0004

	cfg.Preference.Policy = "cara"
	cfg.RiskAversion.Lambda = 0.5

	cfg.Regulation.PriceLimit.Threshold = 0.10
	cfg.Regulation.TransactionTax.Rate = 0.001
	cfg.Regulation.TransactionTax.Payer = string(regulation.PayerSeller)
	cfg.Regulation.SettlementCycle.Type = regulation.CycleImmediate
	cfg.Regulation.BudgetPolicy = "include_pending"
	cfg.Regulation.WealthIncludesPending = true
	cfg.Regulation.ExposureIncludesPending = true

	cfg.Replacement.Mode = "steady_state"
	cfg.Replacement.BankruptcyThreshold = 0.0

	cfg.Metrics.MarketReturnType = "log"

	return cfg
}

// Validate checks the structural constraints that do not belong to any one
// component constructor.
func (c *Config) Validate() error {
	if c.Random.Runs <= 0 {
		return fmt.Errorf("random.runs must be positive, got %d", c.Random.Runs)
	}
	if c.Time.PeriodsTotal <= 0 {
		return fmt.Errorf("time.periods_total must be positive, got %d", c.Time.PeriodsTotal)
	}
	if c.Time.RoundsPerPeriod <= 0 {
		return fmt.Errorf("time.rounds_per_period must be positive, got %d", c.Time.RoundsPerPeriod)
	}
	if c.Market.InitialPrice <= 0 {
		return fmt.Errorf("market.initial_price must be positive, got %v", c.Market.InitialPrice)
	}
	if c.Market.TradeUnit <= 0 {
		return fmt.Errorf("market.trade_unit must be positive, got %d", c.Market.TradeUnit)
	}
	if c.Agents.PopulationTotal <= 0 {
		return fmt.Errorf("agents.population_total must be positive, got %d", c.Agents.PopulationTotal)
	}
	if t := c.Regulation.PriceLimit.Threshold; t < 0 || t >= 1 {
		return fmt.Errorf("regulation.price_limit.threshold must be in [0,1), got %v", t)
	}
	if r := c.Regulation.TransactionTax.Rate; r < 0 {
		return fmt.Errorf("regulation.transaction_tax.rate must be non-negative, got %v", r)
	}
	switch c.Replacement.Mode {
	case "steady_state", "survival", "none":
	default:
		return fmt.Errorf("unknown replacement.mode %q", c.Replacement.Mode)
	}
	switch c.Metrics.MarketReturnType {
	case "log", "simple":
	default:
		return fmt.Errorf("unknown metrics.market_return_type %q", c.Metrics.MarketReturnType)
	}
	return nil
}

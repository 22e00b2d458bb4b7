// Package assets models the risk-free asset and the risky asset's dividend
// process.
package assets

import (
	"fmt"
	"math"
	"math/rand"
)

// Dividend noise parameter interpretations
const (
	ParamStd      = "std"
	ParamVariance = "variance"
)

// Dividend initialization policies
const (
	InitSteadyStateMean = "steady_state_mean"
	InitExplicitValue   = "explicit_value"
)

// Config is the assets section of the scenario configuration.
type Config struct {
	RiskFree struct {
		Rf float64 `yaml:"rf"`
	} `yaml:"risk_free"`
	RiskyDividendAR1 struct {
		Rho                  float64  `yaml:"rho"`
		DBar                 float64  `yaml:"d_bar"`
		MuDistParam          float64  `yaml:"mu_dist_param"`
		MuParamType          string   `yaml:"mu_param_type"`          // std or variance
		InitializationPolicy string   `yaml:"initialization_policy"`  // steady_state_mean or explicit_value
		InitialValue         *float64 `yaml:"initial_value,omitempty"` // required for explicit_value
	} `yaml:"risky_dividend_ar1"`
}

// Model drives the AR(1) dividend process
//
//	D_{t+1} = D_bar + rho*(D_t - D_bar) + mu,  mu ~ N(0, sigma)
//
// All randomness comes from the injected rng, never from global state, so a
// run is fully reproducible given its seed.
type Model struct {
	rng *rand.Rand

	rf    float64
	rho   float64
	dBar  float64
	muStd float64

	dividend float64
}

// NewModel builds the asset model. Parameter interpretations must be
// explicit: an unrecognized mu_param_type or initialization_policy is a
// configuration error raised here, never deferred to runtime.
func NewModel(cfg Config, rng *rand.Rand) (*Model, error) {
	risky := cfg.RiskyDividendAR1

	var muStd float64
	switch risky.MuParamType {
	case ParamStd:
		muStd = risky.MuDistParam
	case ParamVariance:
		muStd = math.Sqrt(risky.MuDistParam)
	default:
		return nil, fmt.Errorf("assets: mu_param_type must be %q or %q, got %q",
			ParamStd, ParamVariance, risky.MuParamType)
	}

	var dividend float64
	switch risky.InitializationPolicy {
	case InitSteadyStateMean:
		dividend = risky.DBar
	case InitExplicitValue:
		if risky.InitialValue == nil {
			return nil, fmt.Errorf("assets: initialization_policy is %q but initial_value is unset", InitExplicitValue)
		}
		dividend = *risky.InitialValue
	default:
		return nil, fmt.Errorf("assets: unknown initialization_policy %q", risky.InitializationPolicy)
	}

	return &Model{
		rng:      rng,
		rf:       cfg.RiskFree.Rf,
		rho:      risky.Rho,
		dBar:     risky.DBar,
		muStd:    muStd,
		dividend: dividend,
	}, nil
}

// Step advances the dividend one period and returns the new value.
func (m *Model) Step() float64 {
	mu := m.rng.NormFloat64() * m.muStd
	m.dividend = m.dBar + m.rho*(m.dividend-m.dBar) + mu
	return m.dividend
}

// CurrentDividend returns the dividend for the current period.
func (m *Model) CurrentDividend() float64 {
	return m.dividend
}

// FundamentalValue returns D_t / rf.
func (m *Model) FundamentalValue() float64 {
	if m.rf == 0 {
		return math.Inf(1)
	}
	return m.dividend / m.rf
}

// RiskFreeRate returns rf.
func (m *Model) RiskFreeRate() float64 {
	return m.rf
}

// GrossReturn returns R = 1 + rf.
func (m *Model) GrossReturn() float64 {
	return 1 + m.rf
}

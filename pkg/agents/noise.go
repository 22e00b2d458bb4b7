package agents

import (
	"fmt"
	"math/rand"

	"github.com/erain9/marketsim/pkg/core"
	"github.com/erain9/marketsim/pkg/ledger"
)

// Noise bias modes
const (
	BiasAdditive       = "additive"
	BiasMultiplicative = "multiplicative"
)

// TypeNoise is the trader type reported by noise traders.
const TypeNoise = "noise"

// NoiseConfig configures noise traders.
type NoiseConfig struct {
	SigmaEpsilon      float64 `yaml:"sigma_epsilon"`
	NoiseMode         string  `yaml:"noise_mode"` // additive or multiplicative
	PerceivedVariance float64 `yaml:"perceived_variance"`
}

// NoiseTrader forms a biased belief about the next payoff by perturbing the
// payoff anchor with a fresh draw each round, then trades toward the
// resulting reservation price.
type NoiseTrader struct {
	baseTrader
	sigma          float64
	multiplicative bool
	perceivedVar   float64
	grossR         float64
}

// NewNoiseTrader builds a noise trader with its own account and rng. An
// unrecognized noise mode is a configuration error.
func NewNoiseTrader(id int, account *ledger.AccountState, policy ReservationPricePolicy, params PolicyParams,
	cfg NoiseConfig, orderSize int64, grossR float64, rng *rand.Rand) (*NoiseTrader, error) {

	mode := cfg.NoiseMode
	if mode == "" {
		mode = BiasAdditive
	}
	if mode != BiasAdditive && mode != BiasMultiplicative {
		return nil, fmt.Errorf("unknown noise_mode %q", cfg.NoiseMode)
	}

	return &NoiseTrader{
		baseTrader: baseTrader{
			id:         id,
			traderType: TypeNoise,
			account:    account,
			policy:     policy,
			params:     params,
			orderSize:  orderSize,
			rng:        rng,
		},
		sigma:          cfg.SigmaEpsilon,
		multiplicative: mode == BiasMultiplicative,
		perceivedVar:   cfg.PerceivedVariance,
		grossR:         grossR,
	}, nil
}

// GenerateOrder implements Trader.
func (n *NoiseTrader) GenerateOrder(snap core.Snapshot, anchorPD float64) (core.Order, bool) {
	epsilon := n.rng.NormFloat64() * n.sigma

	var expPayoff float64
	if n.multiplicative {
		expPayoff = anchorPD * (1 + epsilon)
	} else {
		expPayoff = anchorPD + epsilon
	}

	pr := n.reservationPrice(expPayoff, n.perceivedVar, n.grossR)
	if pr <= 0 {
		// A non-positive reservation price cannot form a valid order.
		return core.Order{}, false
	}
	return n.decideCDA(pr, snap)
}

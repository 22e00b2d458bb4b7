package sim

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/erain9/marketsim/config"
	"github.com/erain9/marketsim/pkg/agents"
	"github.com/erain9/marketsim/pkg/ledger"
)

// traderFactory builds traders with fresh endowments from the scenario
// configuration. Each trader gets its own rng stream drawn from the factory's
// seed source so runs stay reproducible regardless of construction order.
type traderFactory struct {
	cfg          *config.Config
	policy       agents.ReservationPricePolicy
	params       agents.PolicyParams
	ledgerPolicy ledger.Policy
	grossR       float64
	seeds        *rand.Rand
}

func newTraderFactory(cfg *config.Config, seeds *rand.Rand) (*traderFactory, error) {
	policy, err := agents.NewReservationPricePolicy(cfg.Preference.Policy)
	if err != nil {
		return nil, err
	}

	basis, err := ledger.ParseBudgetBasis(cfg.Regulation.BudgetPolicy)
	if err != nil {
		return nil, err
	}

	return &traderFactory{
		cfg:    cfg,
		policy: policy,
		params: agents.PolicyParams{RiskAversion: cfg.RiskAversion.Lambda},
		ledgerPolicy: ledger.Policy{
			Basis:                   basis,
			WealthIncludesPending:   cfg.Regulation.WealthIncludesPending,
			ExposureIncludesPending: cfg.Regulation.ExposureIncludesPending,
		},
		grossR: 1 + cfg.Assets.RiskFree.Rf,
		seeds:  seeds,
	}, nil
}

// newTrader creates a trader of the given type with the configured
// endowment.
func (f *traderFactory) newTrader(id int, traderType string) (agents.Trader, error) {
	account := ledger.NewAccountState(
		decimal.NewFromFloat(f.cfg.Agents.Endowment.InitialCash),
		f.cfg.Agents.Endowment.InitialShares,
		f.ledgerPolicy,
	)
	rng := rand.New(rand.NewSource(f.seeds.Int63()))

	switch traderType {
	case agents.TypeNoise:
		return agents.NewNoiseTrader(id, account, f.policy, f.params,
			f.cfg.Agents.NoiseTrader, f.cfg.Market.TradeUnit, f.grossR, rng)
	default:
		return nil, fmt.Errorf("unknown trader type %q", traderType)
	}
}

// newPopulation creates the initial trader population.
func (f *traderFactory) newPopulation() ([]agents.Trader, error) {
	traders := make([]agents.Trader, 0, f.cfg.Agents.PopulationTotal)
	for id := 0; id < f.cfg.Agents.PopulationTotal; id++ {
		trader, err := f.newTrader(id, agents.TypeNoise)
		if err != nil {
			return nil, err
		}
		traders = append(traders, trader)
	}
	return traders, nil
}

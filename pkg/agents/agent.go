// Package agents contains the decision-policy collaborators of the market
// core: traders that observe the top of book and produce at most one order
// per trading round.
package agents

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/erain9/marketsim/pkg/core"
	"github.com/erain9/marketsim/pkg/ledger"
)

// Trader is a market participant. The simulation engine calls OnPeriodStart
// once per period before trading, then GenerateOrder once per trading round.
type Trader interface {
	ID() int
	Type() string
	Account() *ledger.AccountState
	// OnPeriodStart releases due settlements for the new period.
	OnPeriodStart(period int)
	// GenerateOrder forms at most one order from the current top of book and
	// the period's payoff anchor (last close plus current dividend).
	GenerateOrder(snap core.Snapshot, anchorPD float64) (core.Order, bool)
}

// baseTrader carries the state and behavior shared by all trader types.
type baseTrader struct {
	id         int
	traderType string
	account    *ledger.AccountState
	policy     ReservationPricePolicy
	params     PolicyParams
	orderSize  int64
	rng        *rand.Rand
}

func (b *baseTrader) ID() int { return b.id }

func (b *baseTrader) Type() string { return b.traderType }

func (b *baseTrader) Account() *ledger.AccountState { return b.account }

func (b *baseTrader) OnPeriodStart(period int) { b.account.ProcessSettlements(period) }

// reservationPrice evaluates the configured policy at the agent's current
// exposure.
func (b *baseTrader) reservationPrice(expPayoff, variance, grossR float64) float64 {
	ctx := ReservationContext{
		ExpectedPayoff: expPayoff,
		Variance:       variance,
		Holdings:       b.account.Holdings(),
		GrossR:         grossR,
	}
	return b.policy.Price(ctx, b.params)
}

// decideCDA is the common continuous-double-auction decision rule: cross the
// spread with a market order when the reservation price beats the standing
// quote, otherwise place a limit at the reservation price on the side it
// favors relative to the mid.
func (b *baseTrader) decideCDA(pr float64, snap core.Snapshot) (core.Order, bool) {
	price := decimal.NewFromFloat(pr)

	if snap.HasAsk && price.GreaterThan(snap.BestAsk) {
		order, err := core.NewMarketOrder(b.id, core.Buy, b.orderSize)
		return order, err == nil
	}
	if snap.HasBid && price.LessThan(snap.BestBid) {
		order, err := core.NewMarketOrder(b.id, core.Sell, b.orderSize)
		return order, err == nil
	}

	mid := pr
	if m, ok := snap.Mid(); ok {
		mid = m.InexactFloat64()
	}
	side := core.Buy
	if pr < mid {
		side = core.Sell
	}
	order, err := core.NewLimitOrder(b.id, side, price, b.orderSize)
	return order, err == nil
}

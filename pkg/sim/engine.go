// Package sim orchestrates simulation runs: it drives the time scheduler,
// feeds agent orders to the matching engine, settles the resulting trades
// into the account ledgers and records market statistics.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/erain9/marketsim/config"
	"github.com/erain9/marketsim/pkg/agents"
	"github.com/erain9/marketsim/pkg/assets"
	"github.com/erain9/marketsim/pkg/core"
	"github.com/erain9/marketsim/pkg/ledger"
	"github.com/erain9/marketsim/pkg/logging"
	"github.com/erain9/marketsim/pkg/regulation"
	"github.com/erain9/marketsim/pkg/timeline"
)

// assetSeedOffset separates the asset model's rng stream from the run's
// main stream so the macro environment is stable under agent-count changes.
const assetSeedOffset = 1000

// Rules bundles the immutable regulation rules shared by every run.
type Rules struct {
	PriceLimit      *regulation.PriceLimitRule
	TransactionTax  *regulation.TransactionTaxRule
	SettlementCycle *regulation.SettlementCycleRule
	TaxPayer        regulation.TaxPayer
}

// NewRules constructs the rule set from configuration. Invalid names fail
// here, at startup.
func NewRules(cfg *config.Config) (*Rules, error) {
	scRule, err := regulation.NewSettlementCycleRule(cfg.Regulation.SettlementCycle)
	if err != nil {
		return nil, err
	}
	payer, err := regulation.ParseTaxPayer(cfg.Regulation.TransactionTax.Payer)
	if err != nil {
		return nil, err
	}
	return &Rules{
		PriceLimit:      regulation.NewPriceLimitRule(cfg.Regulation.PriceLimit),
		TransactionTax:  regulation.NewTransactionTaxRule(cfg.Regulation.TransactionTax),
		SettlementCycle: scRule,
		TaxPayer:        payer,
	}, nil
}

// RunResult is the outcome of one simulation run.
type RunResult struct {
	RunID int   `json:"run_id"`
	Seed  int64 `json:"seed"`
	Stats Stats `json:"stats"`
}

// Engine executes a single simulation run. Runs are strictly single-threaded
// and synchronous internally; independent Engine instances may execute in
// parallel because they share nothing mutable (the injected Rules are
// immutable).
type Engine struct {
	cfg   *config.Config
	runID int
	seed  int64

	rng        *rand.Rand
	driver     *timeline.TimeDriver
	rules      *Rules
	assets     *assets.Model
	market     *core.MatchingEngine
	factory    *traderFactory
	traders    []agents.Trader
	traderByID map[int]agents.Trader
	recorder   *Recorder
	replace    *Replacement

	anchorPD     float64
	periodVolume int64

	logger zerolog.Logger
}

// NewEngine wires a run from its configuration. The per-run seed is the
// master seed plus the run index.
func NewEngine(cfg *config.Config, rules *Rules, runID int) (*Engine, error) {
	seed := cfg.Random.Seed + int64(runID)
	rng := rand.New(rand.NewSource(seed))

	assetModel, err := assets.NewModel(cfg.Assets, rand.New(rand.NewSource(seed+assetSeedOffset)))
	if err != nil {
		return nil, err
	}

	factory, err := newTraderFactory(cfg, rng)
	if err != nil {
		return nil, err
	}
	traders, err := factory.newPopulation()
	if err != nil {
		return nil, err
	}

	replace, err := NewReplacement(cfg.Replacement.Mode, cfg.Replacement.BankruptcyThreshold, factory.newTrader)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		runID:    runID,
		seed:     seed,
		rng:      rng,
		driver:   timeline.NewTimeDriver(cfg.Time.PeriodsTotal, cfg.Time.RoundsPerPeriod),
		rules:    rules,
		assets:   assetModel,
		market:   core.NewMatchingEngine(rules.PriceLimit, rules.TransactionTax),
		factory:  factory,
		traders:  traders,
		recorder: NewRecorder(cfg.Metrics.MarketReturnType),
		replace:  replace,
		logger:   logging.ForRun(runID, seed),
	}
	e.rebuildTraderIndex()
	return e, nil
}

// Seed returns the run's effective seed.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Run executes the scheduler to completion and returns the run statistics.
func (e *Engine) Run() (RunResult, error) {
	e.logger.Info().
		Int("periods", e.cfg.Time.PeriodsTotal).
		Int("rounds_per_period", e.cfg.Time.RoundsPerPeriod).
		Int("traders", len(e.traders)).
		Msg("run started")

	for {
		phase := e.driver.Advance()
		switch phase {
		case timeline.Settlement:
			e.handleSettlement()
		case timeline.Trading:
			if err := e.handleTradingRound(); err != nil {
				return RunResult{}, err
			}
		case timeline.PeriodEnd:
			if err := e.handlePeriodEnd(); err != nil {
				return RunResult{}, err
			}
		case timeline.Finished:
			stats := e.recorder.Statistics()
			e.logger.Info().
				Float64("price_volatility", stats.PriceVolatility).
				Float64("price_distortion", stats.PriceDistortion).
				Float64("mean_volume", stats.MeanVolume).
				Msg("run finished")
			return RunResult{RunID: e.runID, Seed: e.seed, Stats: stats}, nil
		}
	}
}

// handleSettlement opens a period: advance the dividend process, reset the
// trading session against the prior close, and release due settlements.
func (e *Engine) handleSettlement() {
	period := e.driver.Period()
	e.assets.Step()

	lastClose := e.lastClose()
	e.market.SetReferencePriceAndResetBook(decimal.NewFromFloat(lastClose))
	e.periodVolume = 0
	e.anchorPD = lastClose + e.assets.CurrentDividend()

	for _, trader := range e.traders {
		trader.OnPeriodStart(period)
	}

	e.logger.Debug().
		Int("period", period).
		Float64("reference_price", lastClose).
		Float64("dividend", e.assets.CurrentDividend()).
		Msg("settlement")
}

// handleTradingRound lets every trader act once, in a seeded shuffle order.
// That order is authoritative: arrival sequence numbers, and therefore
// matching priority, depend on it.
func (e *Engine) handleTradingRound() error {
	e.rng.Shuffle(len(e.traders), func(i, j int) {
		e.traders[i], e.traders[j] = e.traders[j], e.traders[i]
	})

	for _, trader := range e.traders {
		snap := e.market.Snapshot()
		order, ok := trader.GenerateOrder(snap, e.anchorPD)
		if !ok {
			continue
		}
		if !e.withinBudget(trader, order) {
			continue
		}

		for _, trade := range e.market.ProcessOrder(order) {
			if err := e.applyTrade(trade); err != nil {
				return err
			}
		}
	}
	return nil
}

// withinBudget gates an order before submission so the ledger contract is
// never breached, counting the trader's resting orders as committed: a sell
// must be covered by holdings net of resting asks, a buy by cash net of the
// cash its resting bids would cost if fully executed.
//
// The buy-side cost bound is exact-or-conservative: a limit buy never
// executes above its own price, and a market buy never above the worst
// resting ask.
func (e *Engine) withinBudget(trader agents.Trader, order core.Order) bool {
	account := trader.Account()
	bidCash, askQty := e.market.Book().CommittedExposure(trader.ID())

	if order.Side == core.Sell {
		return account.CheckBudgetConstraint(decimal.Zero, -(order.Quantity + askQty))
	}

	bound := order.Price
	if order.Kind == core.KindMarket {
		worst, ok := e.market.Book().WorstAsk()
		if !ok {
			return true // nothing to match; no cash can move
		}
		bound = worst
	}

	cost := bound.Mul(decimal.NewFromInt(order.Quantity))
	buyerTax, _ := e.rules.TaxPayer.Shares(e.rules.TransactionTax.Tax(bound, order.Quantity))
	// Tax is proportional, so Tax(bidCash, 1) is the tax on the committed
	// notional.
	committedTax, _ := e.rules.TaxPayer.Shares(e.rules.TransactionTax.Tax(bidCash, 1))

	need := cost.Add(buyerTax).Add(bidCash).Add(committedTax)
	return account.CheckBudgetConstraint(need.Neg(), order.Quantity)
}

// applyTrade books one execution into both ledgers. The buyer pays notional
// plus their tax share, the seller receives notional minus theirs; stock
// moves one way, cash the other, so trades are zero-sum net of tax.
func (e *Engine) applyTrade(trade core.Trade) error {
	e.periodVolume += trade.Quantity

	buyer, ok := e.traderByID[trade.BuyerID]
	if !ok {
		return fmt.Errorf("trade %d references unknown buyer %d", trade.Seq, trade.BuyerID)
	}
	seller, ok := e.traderByID[trade.SellerID]
	if !ok {
		return fmt.Errorf("trade %d references unknown seller %d", trade.Seq, trade.SellerID)
	}

	buyerTax, sellerTax := e.rules.TaxPayer.Shares(trade.Tax)
	notional := trade.Notional()
	lag := e.rules.SettlementCycle.Lag()
	period := e.driver.Period()

	// A failed application is a contract breach: the budget gate above must
	// reject any order that could violate it.
	if err := buyer.Account().ApplyTrade(notional.Add(buyerTax).Neg(), trade.Quantity, period, lag, true); err != nil {
		return fmt.Errorf("buyer %d, trade %d: %w", trade.BuyerID, trade.Seq, err)
	}
	if err := seller.Account().ApplyTrade(notional.Sub(sellerTax), -trade.Quantity, period, lag, true); err != nil {
		return fmt.Errorf("seller %d, trade %d: %w", trade.SellerID, trade.Seq, err)
	}
	return nil
}

// handlePeriodEnd closes a period: mark every account to market at the close,
// process bankruptcies and record the period.
func (e *Engine) handlePeriodEnd() error {
	closePx := e.closePrice()
	closeDec := decimal.NewFromFloat(closePx)

	for _, trader := range e.traders {
		trader.Account().UpdateWealthStats(closeDec)
	}

	if e.driver.IsEvolutionPoint(e.cfg.Time.EvolutionInterval) {
		// Evolution hook for learning traders; the current population has
		// none, so this is observability only.
		e.logger.Debug().Int("period", e.driver.Period()).Msg("evolution point")
	}

	survivors, stats, err := e.replace.Process(e.traders)
	if err != nil {
		return err
	}
	e.traders = survivors
	e.rebuildTraderIndex()
	if stats.Removed+stats.Replaced > 0 {
		e.logger.Debug().
			Int("period", e.driver.Period()).
			Int("removed", stats.Removed).
			Int("replaced", stats.Replaced).
			Msg("bankruptcies processed")
	}

	e.recorder.RecordPeriod(closePx, e.assets.FundamentalValue(), e.assets.CurrentDividend(),
		e.periodVolume, e.noiseTraders())
	return nil
}

// lastClose is the reference price for a new session: the latest recorded
// close, or the configured initial price before any period has closed.
func (e *Engine) lastClose() float64 {
	if price, ok := e.recorder.LastPrice(); ok {
		return price
	}
	return e.cfg.Market.InitialPrice
}

// closePrice is the period close: the last transaction price of the session,
// falling back to the prior close when the session saw no trades.
func (e *Engine) closePrice() float64 {
	if price, ok := e.market.LastTradePrice(); ok {
		return price.InexactFloat64()
	}
	return e.lastClose()
}

func (e *Engine) noiseTraders() []agents.Trader {
	var noise []agents.Trader
	for _, trader := range e.traders {
		if trader.Type() == agents.TypeNoise {
			noise = append(noise, trader)
		}
	}
	return noise
}

func (e *Engine) rebuildTraderIndex() {
	if e.traderByID == nil {
		e.traderByID = make(map[int]agents.Trader, len(e.traders))
	}
	clear(e.traderByID)
	for _, trader := range e.traders {
		e.traderByID[trader.ID()] = trader
	}
}

// Accounts returns the reporting view of every trader's ledger, keyed by
// trader id.
func (e *Engine) Accounts() map[int]ledger.Summary {
	out := make(map[int]ledger.Summary, len(e.traders))
	for _, trader := range e.traders {
		out[trader.ID()] = trader.Account().Summarize()
	}
	return out
}

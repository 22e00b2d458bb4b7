package sim

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erain9/marketsim/pkg/agents"
)

// Replacement modes
const (
	ReplaceSteadyState = "steady_state"
	ReplaceSurvival    = "survival"
	ReplaceNone        = "none"
)

// ReplacementStats summarizes one period's bankruptcy processing.
type ReplacementStats struct {
	Removed  int
	Replaced int
	ByType   map[string]int
}

// Replacement removes or replaces bankrupt traders at period end, after
// mark-to-market wealth has been updated. In steady-state mode a bankrupt
// trader is replaced by a newborn of the same type reusing its id; in
// survival mode it is simply removed.
type Replacement struct {
	mode      string
	threshold decimal.Decimal
	newborn   func(id int, traderType string) (agents.Trader, error)
}

// NewReplacement builds the replacement policy. The newborn factory is only
// consulted in steady-state mode.
func NewReplacement(mode string, threshold float64, newborn func(id int, traderType string) (agents.Trader, error)) (*Replacement, error) {
	switch mode {
	case ReplaceSteadyState, ReplaceSurvival, ReplaceNone:
	default:
		return nil, fmt.Errorf("unknown replacement mode %q", mode)
	}
	return &Replacement{
		mode:      mode,
		threshold: decimal.NewFromFloat(threshold),
		newborn:   newborn,
	}, nil
}

// Process judges every trader against the bankruptcy threshold and applies
// the configured mode. Traders whose wealth has never been valued are never
// judged bankrupt.
func (r *Replacement) Process(traders []agents.Trader) ([]agents.Trader, ReplacementStats, error) {
	stats := ReplacementStats{ByType: make(map[string]int)}
	if r.mode == ReplaceNone {
		return traders, stats, nil
	}

	survivors := traders[:0]
	for _, trader := range traders {
		if !trader.Account().IsBankrupt(r.threshold) {
			survivors = append(survivors, trader)
			continue
		}

		stats.ByType[trader.Type()]++
		if r.mode == ReplaceSurvival {
			stats.Removed++
			continue
		}

		replacement, err := r.newborn(trader.ID(), trader.Type())
		if err != nil {
			return nil, stats, fmt.Errorf("replacing bankrupt trader %d: %w", trader.ID(), err)
		}
		stats.Replaced++
		survivors = append(survivors, replacement)
	}

	return survivors, stats, nil
}

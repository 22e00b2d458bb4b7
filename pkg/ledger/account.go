// Package ledger tracks per-participant cash and stock balances under
// immediate or deferred settlement, enforcing the budget constraint before
// any mutation.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errors
var (
	ErrBudgetViolation = errors.New("budget constraint violated")
	ErrUnknownBasis    = errors.New("unknown budget basis")
)

// budgetTolerance absorbs rounding noise in upstream price computations.
// Cash may not fall below its negation under any applied trade.
var budgetTolerance = decimal.New(1, -9).Neg() // -1e-9

// BudgetBasis selects the baseline used by budget-constraint checks.
type BudgetBasis int

const (
	// BasisSettled checks against settled balances only.
	BasisSettled BudgetBasis = iota
	// BasisIncludePending credits not-yet-settled transfers as well.
	BasisIncludePending
)

// ParseBudgetBasis maps a configured policy name to a basis. Unknown names
// are a fatal configuration error.
func ParseBudgetBasis(name string) (BudgetBasis, error) {
	switch name {
	case "strict_available":
		return BasisSettled, nil
	case "include_pending", "":
		return BasisIncludePending, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBasis, name)
	}
}

// PendingTransfer is a promised but not-yet-applied settlement. ReleaseTime
// is an absolute period index.
type PendingTransfer struct {
	ReleaseTime int
	CashDelta   decimal.Decimal
	StockDelta  int64
}

// Policy carries the three ledger policy flags.
type Policy struct {
	// Basis is the baseline for budget-constraint checks.
	Basis BudgetBasis
	// WealthIncludesPending folds pending deltas into mark-to-market wealth.
	WealthIncludesPending bool
	// ExposureIncludesPending folds pending stock into Holdings.
	ExposureIncludesPending bool
}

// AccountState is the ledger for a single participant. It is not safe for
// concurrent use; each simulation run owns its accounts exclusively.
type AccountState struct {
	cash    decimal.Decimal
	stock   int64
	pending []PendingTransfer
	policy  Policy

	wealth    decimal.Decimal
	wealthSet bool
}

// NewAccountState creates an account with the given settled endowment.
func NewAccountState(initialCash decimal.Decimal, initialStock int64, policy Policy) *AccountState {
	return &AccountState{
		cash:   initialCash,
		stock:  initialStock,
		policy: policy,
	}
}

// Cash returns the settled cash balance.
func (a *AccountState) Cash() decimal.Decimal {
	return a.cash
}

// Stock returns the settled stock balance.
func (a *AccountState) Stock() int64 {
	return a.stock
}

// PendingCount returns the number of unreleased transfers.
func (a *AccountState) PendingCount() int {
	return len(a.pending)
}

func (a *AccountState) pendingDeltas() (cash decimal.Decimal, stock int64) {
	cash = decimal.Zero
	for _, t := range a.pending {
		cash = cash.Add(t.CashDelta)
		stock += t.StockDelta
	}
	return cash, stock
}

// CheckBudgetConstraint reports whether applying the proposed deltas keeps
// cash above the tolerance and stock non-negative. The baseline is either
// settled balances only or settled plus pending, per the configured basis.
// Pure predicate: no mutation.
func (a *AccountState) CheckBudgetConstraint(cashDelta decimal.Decimal, stockDelta int64) bool {
	baseCash := a.cash
	baseStock := a.stock
	if a.policy.Basis == BasisIncludePending {
		pc, ps := a.pendingDeltas()
		baseCash = baseCash.Add(pc)
		baseStock += ps
	}

	finalCash := baseCash.Add(cashDelta)
	finalStock := baseStock + stockDelta
	return finalCash.GreaterThanOrEqual(budgetTolerance) && finalStock >= 0
}

// ApplyTrade applies a trade's economic effect. With zero lag the balances
// mutate immediately; otherwise a PendingTransfer is recorded for release at
// currentTime+lag. When enforceBudget is set, a failing constraint check is a
// contract breach by the caller and nothing is mutated: callers must never
// offer a trade that violates the budget.
func (a *AccountState) ApplyTrade(cashDelta decimal.Decimal, stockDelta int64, currentTime, lag int, enforceBudget bool) error {
	if enforceBudget && !a.CheckBudgetConstraint(cashDelta, stockDelta) {
		return fmt.Errorf("%w: cashDelta=%s stockDelta=%d cash=%s stock=%d",
			ErrBudgetViolation, cashDelta, stockDelta, a.cash, a.stock)
	}

	if lag == 0 {
		a.cash = a.cash.Add(cashDelta)
		a.stock += stockDelta
		return nil
	}

	a.pending = append(a.pending, PendingTransfer{
		ReleaseTime: currentTime + lag,
		CashDelta:   cashDelta,
		StockDelta:  stockDelta,
	})
	return nil
}

// ProcessSettlements releases every pending transfer whose release time has
// arrived. Must be invoked once at the start of every period, before any
// trading; a released transfer is applied exactly once.
func (a *AccountState) ProcessSettlements(currentTime int) {
	if len(a.pending) == 0 {
		return
	}

	remaining := a.pending[:0]
	for _, t := range a.pending {
		if currentTime >= t.ReleaseTime {
			a.cash = a.cash.Add(t.CashDelta)
			a.stock += t.StockDelta
		} else {
			remaining = append(remaining, t)
		}
	}
	a.pending = remaining
}

// UpdateWealthStats computes and caches mark-to-market wealth at the given
// price. Runs once per period, after trading closes, before any bankruptcy
// judgment.
func (a *AccountState) UpdateWealthStats(currentPrice decimal.Decimal) decimal.Decimal {
	effCash := a.cash
	effStock := a.stock
	if a.policy.WealthIncludesPending {
		pc, ps := a.pendingDeltas()
		effCash = effCash.Add(pc)
		effStock += ps
	}

	a.wealth = effCash.Add(decimal.NewFromInt(effStock).Mul(currentPrice))
	a.wealthSet = true
	return a.wealth
}

// Wealth returns the last mark-to-market valuation, if one has been computed.
func (a *AccountState) Wealth() (decimal.Decimal, bool) {
	return a.wealth, a.wealthSet
}

// IsBankrupt reports whether the last computed wealth is at or below the
// threshold. Before the first valuation no account is judged bankrupt.
func (a *AccountState) IsBankrupt(threshold decimal.Decimal) bool {
	if !a.wealthSet {
		return false
	}
	return a.wealth.LessThanOrEqual(threshold)
}

// Holdings returns the exposure figure decision policies use: the stock
// balance, optionally adjusted by pending stock deltas.
func (a *AccountState) Holdings() int64 {
	if a.policy.ExposureIncludesPending {
		_, ps := a.pendingDeltas()
		return a.stock + ps
	}
	return a.stock
}

// Summary is the reporting view of an account.
type Summary struct {
	Cash         decimal.Decimal `json:"cash"`
	Stock        int64           `json:"stock"`
	Wealth       decimal.Decimal `json:"wealth"`
	WealthKnown  bool            `json:"wealthKnown"`
	PendingCount int             `json:"pendingCount"`
}

// Summarize returns the current reporting view.
func (a *AccountState) Summarize() Summary {
	return Summary{
		Cash:         a.cash,
		Stock:        a.stock,
		Wealth:       a.wealth,
		WealthKnown:  a.wealthSet,
		PendingCount: len(a.pending),
	}
}

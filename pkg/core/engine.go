package core

import (
	"github.com/shopspring/decimal"
)

// PriceBand validates prices against the band around a reference price.
// refSet is false when no reference price exists yet.
type PriceBand interface {
	Allows(price, ref decimal.Decimal, refSet bool) bool
}

// TaxSchedule computes the transaction tax for an execution.
type TaxSchedule interface {
	Tax(price decimal.Decimal, quantity int64) decimal.Decimal
}

// MatchingEngine runs a continuous double auction against an OrderBook,
// applying the injected regulation rules and emitting Trade records.
//
// All methods are synchronous and single-threaded: the matching loop runs to
// completion for each submitted order before the next is considered. Each
// simulation run must own its engine; only the injected rules are shared.
type MatchingEngine struct {
	book  *OrderBook
	band  PriceBand
	taxes TaxSchedule

	refPrice decimal.Decimal
	refSet   bool

	lastPrice decimal.Decimal
	lastSet   bool

	tradeSeq      int64
	sessionTrades []Trade
}

// NewMatchingEngine creates an engine bound to a fresh book. The rules must
// be stateless; they may be shared across parallel runs.
func NewMatchingEngine(band PriceBand, taxes TaxSchedule) *MatchingEngine {
	return &MatchingEngine{
		book:  NewOrderBook(),
		band:  band,
		taxes: taxes,
	}
}

// SetReferencePriceAndResetBook starts a new trading session: it records the
// prior session's close as the reference price, clears the book (resetting
// arrival sequence numbers) and drops the session trade log. Must be called
// exactly once per session, before any order is processed.
func (e *MatchingEngine) SetReferencePriceAndResetBook(price decimal.Decimal) {
	e.refPrice = price
	e.refSet = true
	e.book.Clear()
	e.sessionTrades = e.sessionTrades[:0]
	e.lastSet = false
}

// ReferencePrice returns the current session's reference price, if set.
func (e *MatchingEngine) ReferencePrice() (decimal.Decimal, bool) {
	return e.refPrice, e.refSet
}

// LastTradePrice returns the price of the most recent execution this session.
func (e *MatchingEngine) LastTradePrice() (decimal.Decimal, bool) {
	return e.lastPrice, e.lastSet
}

// SessionTrades returns the trades executed since the last session reset.
func (e *MatchingEngine) SessionTrades() []Trade {
	return e.sessionTrades
}

// Snapshot reports the current top of book.
func (e *MatchingEngine) Snapshot() Snapshot {
	return e.book.Snapshot()
}

// Book exposes the underlying order book, mainly for inspection in tests and
// reporting. Callers must not mutate it behind the engine's back.
func (e *MatchingEngine) Book() *OrderBook {
	return e.book
}

// ProcessOrder matches an incoming order against the book and returns the
// resulting trades, zero or more, immediately.
//
// Malformed orders (non-positive quantity, unknown kind, invalid side, limit
// with non-positive price) are silently dropped: no trades, no side effects.
// A limit order priced outside the band is rejected at submission. During
// matching the execution price is always the resting side's price, and is
// itself re-validated against the band because the reference price may have
// been reset since the resting order was accepted. Any unfilled remainder is
// offered to rest via AddLimit under the same submission-time band check; a
// market order's nominal zero price never passes, so its remainder is
// discarded rather than resting.
func (e *MatchingEngine) ProcessOrder(order Order) []Trade {
	if order.Quantity <= 0 {
		return nil
	}
	if order.Kind != KindLimit && order.Kind != KindMarket {
		return nil
	}
	if order.Side != Buy && order.Side != Sell {
		return nil
	}
	if order.Kind == KindLimit && !order.Price.IsPositive() {
		return nil
	}

	// Submission-time band check for limit orders: out-of-band limits never
	// trade and never rest.
	if order.Kind == KindLimit && !e.band.Allows(order.Price, e.refPrice, e.refSet) {
		return nil
	}

	remaining := order.Quantity
	var trades []Trade

	for remaining > 0 {
		var best *BookEntry
		if order.Side == Buy {
			best = e.book.PeekBestAsk()
		} else {
			best = e.book.PeekBestBid()
		}
		if best == nil {
			break // no liquidity
		}

		matchPrice := best.Order.Price

		// Crossing check: stop without consuming liquidity when the limit
		// does not reach the opposing quote.
		if order.Kind == KindLimit {
			if order.Side == Buy && order.Price.LessThan(matchPrice) {
				break
			}
			if order.Side == Sell && order.Price.GreaterThan(matchPrice) {
				break
			}
		}

		// The resting price was valid when it rested, but the reference
		// price may have moved since.
		if !e.band.Allows(matchPrice, e.refPrice, e.refSet) {
			break
		}

		qty := min(remaining, best.Remaining)
		tax := e.taxes.Tax(matchPrice, qty)

		e.tradeSeq++
		trade := Trade{
			Price:    matchPrice,
			Quantity: qty,
			Tax:      tax,
			Seq:      e.tradeSeq,
		}
		if order.Side == Buy {
			trade.BuyerID = order.AgentID
			trade.SellerID = best.Order.AgentID
		} else {
			trade.BuyerID = best.Order.AgentID
			trade.SellerID = order.AgentID
		}

		trades = append(trades, trade)
		e.sessionTrades = append(e.sessionTrades, trade)
		e.lastPrice = matchPrice
		e.lastSet = true

		remaining -= qty

		var popped *BookEntry
		if order.Side == Buy {
			popped = e.book.PopBestAsk()
		} else {
			popped = e.book.PopBestBid()
		}
		popped.Remaining -= qty
		if popped.Remaining > 0 {
			// Partial fill: back on the book under its original arrival
			// sequence number.
			e.book.Reinsert(popped)
		}
	}

	// Offer the remainder to rest. The band check is applied uniformly at
	// submission time; AddLimit additionally rejects non-positive prices, so
	// market remainders are discarded here.
	if remaining > 0 && e.band.Allows(order.Price, e.refPrice, e.refSet) {
		rest := order
		rest.Quantity = remaining
		e.book.AddLimit(rest)
	}

	return trades
}

package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order: +1 buys, -1 sells.
type Side int

// Order sides
const (
	Buy  Side = 1
	Sell Side = -1
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	return -s
}

// Kind represents the kind of an order
type Kind string

// Order kinds
const (
	KindLimit  Kind = "limit"
	KindMarket Kind = "market"
)

// Order is an ephemeral trade request. It is submitted once per agent per
// trading round and is not retained after submission; the book keeps its own
// BookEntry for any resting remainder.
type Order struct {
	AgentID  int
	Side     Side
	Kind     Kind
	Price    decimal.Decimal // ignored for market orders
	Quantity int64
}

// NewLimitOrder creates a limit order. Price and quantity must be positive.
func NewLimitOrder(agentID int, side Side, price decimal.Decimal, quantity int64) (Order, error) {
	if quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return Order{}, ErrInvalidPrice
	}
	if side != Buy && side != Sell {
		return Order{}, ErrInvalidSide
	}
	return Order{AgentID: agentID, Side: side, Kind: KindLimit, Price: price, Quantity: quantity}, nil
}

// NewMarketOrder creates a market order. Quantity must be positive.
func NewMarketOrder(agentID int, side Side, quantity int64) (Order, error) {
	if quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}
	if side != Buy && side != Sell {
		return Order{}, ErrInvalidSide
	}
	return Order{AgentID: agentID, Side: side, Kind: KindMarket, Price: decimal.Zero, Quantity: quantity}, nil
}

// String implements fmt.Stringer interface
func (o Order) String() string {
	return fmt.Sprintf("{agent=%d %s %s qty=%d px=%s}", o.AgentID, o.Side, o.Kind, o.Quantity, o.Price)
}

// BookEntry wraps a resting order. Entries are owned exclusively by the
// OrderBook. Seq is assigned once, at first insertion, and never changes
// across partial fills: it is the anchor of price-time priority.
type BookEntry struct {
	Order     Order
	Remaining int64
	Seq       int64
}

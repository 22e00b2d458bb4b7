package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Trade is an immutable execution record. Seq is a run-global, monotonically
// increasing execution sequence number; unlike book arrival numbers it is
// never reset between sessions, which keeps trade ids unique across the run.
type Trade struct {
	Price    decimal.Decimal
	Quantity int64
	BuyerID  int
	SellerID int
	Tax      decimal.Decimal
	Seq      int64
}

// Notional returns price times quantity.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// MarshalJSON implements Marshaler interface
func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price    string `json:"price"`
		Quantity int64  `json:"quantity"`
		BuyerID  int    `json:"buyerID"`
		SellerID int    `json:"sellerID"`
		Tax      string `json:"tax"`
		Seq      int64  `json:"seq"`
	}{
		Price:    t.Price.String(),
		Quantity: t.Quantity,
		BuyerID:  t.BuyerID,
		SellerID: t.SellerID,
		Tax:      t.Tax.String(),
		Seq:      t.Seq,
	})
}

// Snapshot is the top-of-book view queried by agents before they form their
// next order. Either side may be absent.
type Snapshot struct {
	BestBid decimal.Decimal
	HasBid  bool
	BestAsk decimal.Decimal
	HasAsk  bool
}

// Mid returns the midpoint of the spread when both sides are present.
func (s Snapshot) Mid() (decimal.Decimal, bool) {
	if !s.HasBid || !s.HasAsk {
		return decimal.Zero, false
	}
	return s.BestBid.Add(s.BestAsk).Div(decimal.NewFromInt(2)), true
}

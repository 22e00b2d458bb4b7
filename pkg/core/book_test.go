package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func limitAt(agentID int, side Side, price string, qty int64) Order {
	order, err := NewLimitOrder(agentID, side, decimal.RequireFromString(price), qty)
	if err != nil {
		panic(err)
	}
	return order
}

func TestOrderBookPricePriority(t *testing.T) {
	book := NewOrderBook()

	book.AddLimit(limitAt(1, Buy, "100", 10))
	book.AddLimit(limitAt(2, Buy, "102", 10))
	book.AddLimit(limitAt(3, Buy, "101", 10))
	book.AddLimit(limitAt(4, Sell, "105", 10))
	book.AddLimit(limitAt(5, Sell, "103", 10))
	book.AddLimit(limitAt(6, Sell, "104", 10))

	bid, ok := book.BestBid()
	if !ok || !bid.Equal(decimal.RequireFromString("102")) {
		t.Errorf("Expected best bid 102, got %v (ok=%v)", bid, ok)
	}
	ask, ok := book.BestAsk()
	if !ok || !ask.Equal(decimal.RequireFromString("103")) {
		t.Errorf("Expected best ask 103, got %v (ok=%v)", ask, ok)
	}

	// Bids drain highest first, asks lowest first.
	wantBidAgents := []int{2, 3, 1}
	for i, want := range wantBidAgents {
		entry := book.PopBestBid()
		if entry == nil || entry.Order.AgentID != want {
			t.Fatalf("Bid pop %d: expected agent %d, got %+v", i, want, entry)
		}
	}
	wantAskAgents := []int{5, 6, 4}
	for i, want := range wantAskAgents {
		entry := book.PopBestAsk()
		if entry == nil || entry.Order.AgentID != want {
			t.Fatalf("Ask pop %d: expected agent %d, got %+v", i, want, entry)
		}
	}
}

func TestOrderBookTimePriorityAtSamePrice(t *testing.T) {
	book := NewOrderBook()

	book.AddLimit(limitAt(1, Buy, "100", 5))
	book.AddLimit(limitAt(2, Buy, "100", 5))
	book.AddLimit(limitAt(3, Buy, "100", 5))

	for i, want := range []int{1, 2, 3} {
		entry := book.PopBestBid()
		if entry == nil || entry.Order.AgentID != want {
			t.Fatalf("Pop %d: expected agent %d (FIFO at equal price), got %+v", i, want, entry)
		}
	}
}

func TestOrderBookReinsertKeepsOriginalPriority(t *testing.T) {
	book := NewOrderBook()

	book.AddLimit(limitAt(1, Buy, "100", 10))
	book.AddLimit(limitAt(2, Buy, "100", 10))

	// Partially fill the first order, then put it back.
	entry := book.PopBestBid()
	if entry.Order.AgentID != 1 {
		t.Fatalf("Expected agent 1 at the front, got %d", entry.Order.AgentID)
	}
	entry.Remaining -= 4
	book.Reinsert(entry)

	// It must still be ahead of agent 2 despite the round trip.
	front := book.PeekBestBid()
	if front.Order.AgentID != 1 {
		t.Errorf("Expected agent 1 to keep priority after reinsert, got %d", front.Order.AgentID)
	}
	if front.Remaining != 6 {
		t.Errorf("Expected remaining 6, got %d", front.Remaining)
	}
}

func TestOrderBookReinsertIgnoresEmptyEntries(t *testing.T) {
	book := NewOrderBook()

	book.Reinsert(nil)
	entry := &BookEntry{Order: limitAt(1, Sell, "100", 5), Remaining: 0, Seq: 1}
	book.Reinsert(entry)

	if bids, asks := book.Depth(); bids != 0 || asks != 0 {
		t.Errorf("Expected empty book, got %d bids and %d asks", bids, asks)
	}
}

func TestOrderBookRejectsMalformedOrders(t *testing.T) {
	book := NewOrderBook()

	book.AddLimit(Order{AgentID: 1, Side: Buy, Kind: KindLimit, Price: decimal.NewFromInt(100), Quantity: 0})
	book.AddLimit(Order{AgentID: 1, Side: Buy, Kind: KindLimit, Price: decimal.NewFromInt(100), Quantity: -3})
	book.AddLimit(Order{AgentID: 1, Side: Buy, Kind: KindLimit, Price: decimal.Zero, Quantity: 5})
	book.AddLimit(Order{AgentID: 1, Side: Sell, Kind: KindLimit, Price: decimal.NewFromInt(-1), Quantity: 5})

	if bids, asks := book.Depth(); bids != 0 || asks != 0 {
		t.Errorf("Expected malformed orders to be dropped, got %d bids and %d asks", bids, asks)
	}
}

func TestOrderBookClearResetsArrivalSequence(t *testing.T) {
	book := NewOrderBook()

	book.AddLimit(limitAt(1, Buy, "100", 5))
	book.AddLimit(limitAt(2, Buy, "100", 5))
	book.Clear()

	if bids, asks := book.Depth(); bids != 0 || asks != 0 {
		t.Fatalf("Expected empty book after Clear, got %d bids and %d asks", bids, asks)
	}

	// Arrival numbering restarts, so the first post-clear order is first
	// in the queue again.
	book.AddLimit(limitAt(3, Buy, "100", 5))
	entry := book.PeekBestBid()
	if entry.Seq != 1 {
		t.Errorf("Expected arrival sequence to restart at 1, got %d", entry.Seq)
	}
}

func TestOrderBookWorstAsk(t *testing.T) {
	book := NewOrderBook()

	if _, ok := book.WorstAsk(); ok {
		t.Error("Expected no worst ask on an empty book")
	}

	book.AddLimit(limitAt(1, Sell, "103", 1))
	book.AddLimit(limitAt(2, Sell, "110", 1))
	book.AddLimit(limitAt(3, Sell, "105", 1))

	worst, ok := book.WorstAsk()
	if !ok || !worst.Equal(decimal.RequireFromString("110")) {
		t.Errorf("Expected worst ask 110, got %v (ok=%v)", worst, ok)
	}
}

func TestOrderBookCommittedExposure(t *testing.T) {
	book := NewOrderBook()

	book.AddLimit(limitAt(1, Buy, "100", 2))
	book.AddLimit(limitAt(1, Buy, "99", 1))
	book.AddLimit(limitAt(1, Sell, "110", 4))
	book.AddLimit(limitAt(2, Buy, "98", 5))

	bidCash, askQty := book.CommittedExposure(1)
	if !bidCash.Equal(decimal.RequireFromString("299")) {
		t.Errorf("Expected committed bid cash 299 (2*100 + 1*99), got %v", bidCash)
	}
	if askQty != 4 {
		t.Errorf("Expected committed ask quantity 4, got %d", askQty)
	}

	bidCash, askQty = book.CommittedExposure(3)
	if !bidCash.IsZero() || askQty != 0 {
		t.Errorf("Expected zero exposure for an absent agent, got %v and %d", bidCash, askQty)
	}
}

func TestOrderBookSnapshot(t *testing.T) {
	book := NewOrderBook()

	snap := book.Snapshot()
	if snap.HasBid || snap.HasAsk {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
	if _, ok := snap.Mid(); ok {
		t.Error("Expected no mid price on an empty book")
	}

	book.AddLimit(limitAt(1, Buy, "99", 5))
	book.AddLimit(limitAt(2, Sell, "101", 5))

	snap = book.Snapshot()
	if !snap.HasBid || !snap.BestBid.Equal(decimal.RequireFromString("99")) {
		t.Errorf("Expected best bid 99, got %+v", snap)
	}
	if !snap.HasAsk || !snap.BestAsk.Equal(decimal.RequireFromString("101")) {
		t.Errorf("Expected best ask 101, got %+v", snap)
	}
	mid, ok := snap.Mid()
	if !ok || !mid.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected mid 100, got %v (ok=%v)", mid, ok)
	}
}

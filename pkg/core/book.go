package core

import (
	"container/heap"

	"github.com/shopspring/decimal"
)

// bidQueue orders entries by highest price first, earliest arrival second.
// Use container/heap package to manipulate this heap (Init, Push, Pop).
type bidQueue []*BookEntry

func (q bidQueue) Len() int { return len(q) }
func (q bidQueue) Less(i, j int) bool {
	if c := q[i].Order.Price.Cmp(q[j].Order.Price); c != 0 {
		return c > 0
	}
	return q[i].Seq < q[j].Seq
}
func (q bidQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *bidQueue) Push(x any) { *q = append(*q, x.(*BookEntry)) }

func (q *bidQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// askQueue orders entries by lowest price first, earliest arrival second.
type askQueue []*BookEntry

func (q askQueue) Len() int { return len(q) }
func (q askQueue) Less(i, j int) bool {
	if c := q[i].Order.Price.Cmp(q[j].Order.Price); c != 0 {
		return c < 0
	}
	return q[i].Seq < q[j].Seq
}
func (q askQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *askQueue) Push(x any) { *q = append(*q, x.(*BookEntry)) }

func (q *askQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// OrderBook is a limit order book with strict price-time (FIFO) priority.
// The arrival sequence counter is session-local: Clear resets it, so queue
// priority is scoped to a single trading session while trade sequence numbers
// (owned by the MatchingEngine) stay monotonic for the whole run.
type OrderBook struct {
	bids bidQueue
	asks askQueue
	seq  int64
}

// NewOrderBook creates an empty OrderBook.
func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// Clear empties both sides and resets the arrival sequence counter.
// Called once per trading session at reference-price reset.
func (b *OrderBook) Clear() {
	b.bids = b.bids[:0]
	b.asks = b.asks[:0]
	b.seq = 0
}

func (b *OrderBook) nextSeq() int64 {
	b.seq++
	return b.seq
}

// AddLimit places a new resting order, assigning the next arrival sequence
// number. Non-positive price or quantity is silently rejected.
func (b *OrderBook) AddLimit(order Order) {
	if order.Quantity <= 0 {
		return
	}
	if !order.Price.IsPositive() {
		return
	}

	entry := &BookEntry{
		Order:     order,
		Remaining: order.Quantity,
		Seq:       b.nextSeq(),
	}
	if order.Side == Buy {
		heap.Push(&b.bids, entry)
	} else {
		heap.Push(&b.asks, entry)
	}
}

// Reinsert re-adds a partially filled entry under its ORIGINAL arrival
// sequence number, never a new one. Without this a partially filled order
// would lose queue priority to orders that arrived after it but before its
// partial fill.
func (b *OrderBook) Reinsert(entry *BookEntry) {
	if entry == nil || entry.Remaining <= 0 {
		return
	}
	if entry.Order.Side == Buy {
		heap.Push(&b.bids, entry)
	} else {
		heap.Push(&b.asks, entry)
	}
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	if len(b.bids) == 0 {
		return decimal.Zero, false
	}
	return b.bids[0].Order.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	if len(b.asks) == 0 {
		return decimal.Zero, false
	}
	return b.asks[0].Order.Price, true
}

// PeekBestBid returns the entry at the best bid without removing it.
func (b *OrderBook) PeekBestBid() *BookEntry {
	if len(b.bids) == 0 {
		return nil
	}
	return b.bids[0]
}

// PeekBestAsk returns the entry at the best ask without removing it.
func (b *OrderBook) PeekBestAsk() *BookEntry {
	if len(b.asks) == 0 {
		return nil
	}
	return b.asks[0]
}

// PopBestBid removes and returns the best bid entry, or nil if empty.
func (b *OrderBook) PopBestBid() *BookEntry {
	if len(b.bids) == 0 {
		return nil
	}
	return heap.Pop(&b.bids).(*BookEntry)
}

// PopBestAsk removes and returns the best ask entry, or nil if empty.
func (b *OrderBook) PopBestAsk() *BookEntry {
	if len(b.asks) == 0 {
		return nil
	}
	return heap.Pop(&b.asks).(*BookEntry)
}

// WorstAsk returns the highest resting ask price, if any. No execution
// against the current book can price above it.
func (b *OrderBook) WorstAsk() (decimal.Decimal, bool) {
	if len(b.asks) == 0 {
		return decimal.Zero, false
	}
	worst := b.asks[0].Order.Price
	for _, e := range b.asks[1:] {
		if e.Order.Price.GreaterThan(worst) {
			worst = e.Order.Price
		}
	}
	return worst, true
}

// CommittedExposure sums an agent's resting commitments: the cash its bids
// would cost if fully executed and the shares its asks would deliver. Linear
// in book depth; depth stays small because each agent rests at most one
// order per round.
func (b *OrderBook) CommittedExposure(agentID int) (bidCash decimal.Decimal, askQty int64) {
	bidCash = decimal.Zero
	for _, e := range b.bids {
		if e.Order.AgentID == agentID {
			bidCash = bidCash.Add(e.Order.Price.Mul(decimal.NewFromInt(e.Remaining)))
		}
	}
	for _, e := range b.asks {
		if e.Order.AgentID == agentID {
			askQty += e.Remaining
		}
	}
	return bidCash, askQty
}

// Depth returns the number of resting entries on each side.
func (b *OrderBook) Depth() (bids, asks int) {
	return len(b.bids), len(b.asks)
}

// Snapshot reports the top of book for agent decision making.
func (b *OrderBook) Snapshot() Snapshot {
	s := Snapshot{}
	s.BestBid, s.HasBid = b.BestBid()
	s.BestAsk, s.HasAsk = b.BestAsk()
	return s
}

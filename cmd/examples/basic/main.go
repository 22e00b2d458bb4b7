package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erain9/marketsim/pkg/core"
	"github.com/erain9/marketsim/pkg/regulation"
)

// A walkthrough of the matching engine: resting orders, executions at the
// resting side's price, and the price limit band.
func main() {
	band := regulation.NewPriceLimitRule(regulation.PriceLimitConfig{
		Enabled:   true,
		Threshold: 0.10,
	})
	taxes := regulation.NewTransactionTaxRule(regulation.TransactionTaxConfig{
		Enabled: true,
		Rate:    0.001,
	})
	engine := core.NewMatchingEngine(band, taxes)
	engine.SetReferencePriceAndResetBook(decimal.NewFromInt(100))

	fmt.Println("===== MARKETSIM MATCHING WALKTHROUGH =====")
	fmt.Println("Reference price 100, price band +/-10%, tax 0.1%")
	fmt.Println()

	fmt.Println("STEP 1: Agent 1 posts a buy limit 5 @ 102")
	submit(engine, mustLimit(1, core.Buy, 102, 5))
	printBook(engine)

	fmt.Println("STEP 2: Agent 2 sells 3 @ 101 (crosses; executes at the resting bid 102)")
	submit(engine, mustLimit(2, core.Sell, 101, 3))
	printBook(engine)

	fmt.Println("STEP 3: Agent 3 sells 4 @ 102 (fills the remaining 2, rests 2 @ 102)")
	submit(engine, mustLimit(3, core.Sell, 102, 4))
	printBook(engine)

	fmt.Println("STEP 4: Agent 4 tries to buy 1 @ 115 (outside the band; silently dropped)")
	submit(engine, mustLimit(4, core.Buy, 115, 1))
	printBook(engine)

	fmt.Println("STEP 5: Agent 5 sends a market buy for 1 (lifts the resting ask at 102)")
	order, err := core.NewMarketOrder(5, core.Buy, 1)
	if err != nil {
		panic(err)
	}
	submit(engine, order)
	printBook(engine)

	fmt.Printf("Session saw %d trades in total\n", len(engine.SessionTrades()))
}

func mustLimit(agentID int, side core.Side, price float64, qty int64) core.Order {
	order, err := core.NewLimitOrder(agentID, side, decimal.NewFromFloat(price), qty)
	if err != nil {
		panic(err)
	}
	return order
}

func submit(engine *core.MatchingEngine, order core.Order) {
	trades := engine.ProcessOrder(order)
	if len(trades) == 0 {
		fmt.Println("  no trades")
	}
	for _, trade := range trades {
		fmt.Printf("  trade #%d: %d @ %s (buyer %d, seller %d, tax %s)\n",
			trade.Seq, trade.Quantity, trade.Price, trade.BuyerID, trade.SellerID, trade.Tax)
	}
}

func printBook(engine *core.MatchingEngine) {
	snap := engine.Snapshot()
	bid, ask := "-", "-"
	if snap.HasBid {
		bid = snap.BestBid.String()
	}
	if snap.HasAsk {
		ask = snap.BestAsk.String()
	}
	fmt.Printf("  book: best bid %s, best ask %s\n\n", bid, ask)
}

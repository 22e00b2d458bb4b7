package sim

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erain9/marketsim/pkg/agents"
	"github.com/erain9/marketsim/pkg/core"
	"github.com/erain9/marketsim/pkg/ledger"
)

// stubTrader is a minimal Trader for recorder and replacement tests.
type stubTrader struct {
	id         int
	traderType string
	account    *ledger.AccountState
}

func (s *stubTrader) ID() int { return s.id }

func (s *stubTrader) Type() string { return s.traderType }

func (s *stubTrader) Account() *ledger.AccountState { return s.account }

func (s *stubTrader) OnPeriodStart(period int) { s.account.ProcessSettlements(period) }

func (s *stubTrader) GenerateOrder(snap core.Snapshot, anchorPD float64) (core.Order, bool) {
	return core.Order{}, false
}

func newStubTrader(id int, wealth float64) *stubTrader {
	account := ledger.NewAccountState(decimal.NewFromFloat(wealth), 0, ledger.Policy{})
	account.UpdateWealthStats(decimal.Zero)
	return &stubTrader{id: id, traderType: agents.TypeNoise, account: account}
}

func TestRecorderLogReturns(t *testing.T) {
	rec := NewRecorder(ReturnLog)

	rec.RecordPeriod(100, 95, 2, 10, nil)
	rec.RecordPeriod(104, 96, 2, 20, nil)

	price, ok := rec.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 104.0, price)

	stats := rec.Statistics()
	// One return observation: stddev over a single sample is zero.
	assert.Equal(t, 0.0, stats.PriceVolatility)
	assert.Equal(t, 15.0, stats.MeanVolume)

	rec.RecordPeriod(100, 97, 2, 30, nil)
	stats = rec.Statistics()
	assert.Greater(t, stats.PriceVolatility, 0.0)
}

func TestRecorderReturnTypes(t *testing.T) {
	logRec := NewRecorder(ReturnLog)
	logRec.RecordPeriod(100, 100, 0, 0, nil)
	logRec.RecordPeriod(110, 100, 1, 0, nil)
	assert.InDelta(t, math.Log(111.0/100.0), logRec.marketReturns[0], 1e-12)

	simpleRec := NewRecorder(ReturnSimple)
	simpleRec.RecordPeriod(100, 100, 0, 0, nil)
	simpleRec.RecordPeriod(110, 100, 1, 0, nil)
	assert.InDelta(t, 0.11, simpleRec.marketReturns[0], 1e-12)
}

func TestRecorderPriceDistortion(t *testing.T) {
	rec := NewRecorder(ReturnLog)

	// |100-80|/80 = 0.25 and |90-100|/100 = 0.10, mean 0.175.
	rec.RecordPeriod(100, 80, 0, 0, nil)
	rec.RecordPeriod(90, 100, 0, 0, nil)

	stats := rec.Statistics()
	assert.InDelta(t, 0.175, stats.PriceDistortion, 1e-12)
}

func TestRecorderNoiseWealthReturns(t *testing.T) {
	rec := NewRecorder(ReturnLog)

	trader := newStubTrader(1, 100)
	rec.RecordPeriod(100, 100, 0, 0, []agents.Trader{trader})
	assert.Empty(t, rec.noiseAvgReturns, "first observation has no prior wealth")

	trader.account.UpdateWealthStats(decimal.Zero) // wealth still 100
	require.NoError(t, trader.account.ApplyTrade(decimal.NewFromFloat(10), 0, 0, 0, false))
	trader.account.UpdateWealthStats(decimal.Zero) // wealth now 110
	rec.RecordPeriod(100, 100, 0, 0, []agents.Trader{trader})

	require.Len(t, rec.noiseAvgReturns, 1)
	assert.InDelta(t, 0.10, rec.noiseAvgReturns[0], 1e-12)
}

func TestRecorderEmptyStatistics(t *testing.T) {
	rec := NewRecorder(ReturnLog)

	stats := rec.Statistics()
	assert.Zero(t, stats.PriceVolatility)
	assert.Zero(t, stats.PriceDistortion)
	assert.Zero(t, stats.MeanVolume)
	assert.Zero(t, stats.NoiseRisk)

	if _, ok := rec.LastPrice(); ok {
		t.Error("Expected no last price on an empty recorder")
	}
}

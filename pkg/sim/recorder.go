package sim

import (
	"math"

	"github.com/erain9/marketsim/pkg/agents"
)

// Market return types
const (
	ReturnLog    = "log"
	ReturnSimple = "simple"
)

// Recorder accumulates the per-period market series of one run and derives
// the summary statistics reported at the end.
type Recorder struct {
	returnType string

	prices       []float64
	fundamentals []float64
	dividends    []float64
	volumes      []int64

	marketReturns   []float64
	noiseAvgReturns []float64

	prevNoiseWealth map[int]float64
}

// NewRecorder creates an empty recorder.
func NewRecorder(returnType string) *Recorder {
	return &Recorder{
		returnType:      returnType,
		prevNoiseWealth: make(map[int]float64),
	}
}

// LastPrice returns the most recent period close, if any period has closed.
func (r *Recorder) LastPrice() (float64, bool) {
	if len(r.prices) == 0 {
		return 0, false
	}
	return r.prices[len(r.prices)-1], true
}

// Prices returns the recorded close series.
func (r *Recorder) Prices() []float64 {
	return r.prices
}

// RecordPeriod appends one period's close, fundamental, dividend and volume,
// and updates the derived return series. Noise traders are passed so their
// realized wealth returns can be tracked across periods.
func (r *Recorder) RecordPeriod(price, fundamental, dividend float64, volume int64, noiseTraders []agents.Trader) {
	if len(r.prices) > 0 {
		prev := r.prices[len(r.prices)-1]
		var ret float64
		if r.returnType == ReturnSimple {
			ret = (price+dividend)/prev - 1
		} else {
			ret = math.Log((price + dividend) / prev)
		}
		r.marketReturns = append(r.marketReturns, ret)
	}

	r.prices = append(r.prices, price)
	r.fundamentals = append(r.fundamentals, fundamental)
	r.dividends = append(r.dividends, dividend)
	r.volumes = append(r.volumes, volume)

	var periodReturns []float64
	for _, trader := range noiseTraders {
		wealth, ok := trader.Account().Wealth()
		if !ok {
			continue
		}
		w := wealth.InexactFloat64()
		if prev, seen := r.prevNoiseWealth[trader.ID()]; seen && prev > 0 {
			periodReturns = append(periodReturns, (w-prev)/prev)
		}
		r.prevNoiseWealth[trader.ID()] = w
	}
	if len(periodReturns) > 0 {
		r.noiseAvgReturns = append(r.noiseAvgReturns, mean(periodReturns))
	} else if len(r.noiseAvgReturns) > 0 {
		r.noiseAvgReturns = append(r.noiseAvgReturns, 0)
	}
}

// Stats are the summary statistics of one run.
type Stats struct {
	// PriceVolatility is the sample standard deviation of market returns.
	PriceVolatility float64 `json:"price_volatility"`
	// PriceDistortion is the mean relative deviation of the close from the
	// fundamental value.
	PriceDistortion float64 `json:"price_distortion"`
	// MeanVolume is the mean per-period traded volume.
	MeanVolume float64 `json:"mean_volume"`
	// NoiseRisk is the sample standard deviation of the average noise-trader
	// wealth return.
	NoiseRisk float64 `json:"noise_risk"`
}

// Statistics derives the run summary from the recorded series.
func (r *Recorder) Statistics() Stats {
	var distortions []float64
	for i, p := range r.prices {
		if pf := r.fundamentals[i]; pf != 0 {
			distortions = append(distortions, math.Abs(p-pf)/pf)
		}
	}

	var meanVolume float64
	if len(r.volumes) > 0 {
		var total int64
		for _, v := range r.volumes {
			total += v
		}
		meanVolume = float64(total) / float64(len(r.volumes))
	}

	return Stats{
		PriceVolatility: sampleStdDev(r.marketReturns),
		PriceDistortion: mean(distortions),
		MeanVolume:      meanVolume,
		NoiseRisk:       sampleStdDev(r.noiseAvgReturns),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev is the n-1 normalized standard deviation; zero for fewer than
// two observations.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

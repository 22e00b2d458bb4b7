package assets

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	var cfg Config
	cfg.RiskFree.Rf = 0.05
	cfg.RiskyDividendAR1.Rho = 0.9
	cfg.RiskyDividendAR1.DBar = 5.0
	cfg.RiskyDividendAR1.MuDistParam = 0.1
	cfg.RiskyDividendAR1.MuParamType = ParamStd
	cfg.RiskyDividendAR1.InitializationPolicy = InitSteadyStateMean
	return cfg
}

func TestNewModelInitialization(t *testing.T) {
	model, err := NewModel(testConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 5.0, model.CurrentDividend(), "steady state starts at d_bar")
	assert.Equal(t, 0.05, model.RiskFreeRate())
	assert.Equal(t, 1.05, model.GrossReturn())
	assert.InDelta(t, 100.0, model.FundamentalValue(), 1e-12)
}

func TestNewModelExplicitValue(t *testing.T) {
	cfg := testConfig()
	initial := 7.5
	cfg.RiskyDividendAR1.InitializationPolicy = InitExplicitValue
	cfg.RiskyDividendAR1.InitialValue = &initial

	model, err := NewModel(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 7.5, model.CurrentDividend())

	// Explicit policy without a value is a configuration error.
	cfg.RiskyDividendAR1.InitialValue = nil
	_, err = NewModel(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestNewModelVarianceParam(t *testing.T) {
	cfg := testConfig()
	cfg.RiskyDividendAR1.MuDistParam = 0.04
	cfg.RiskyDividendAR1.MuParamType = ParamVariance

	model, err := NewModel(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, model.muStd, 1e-12, "variance 0.04 means std 0.2")
}

func TestNewModelRejectsUnknownNames(t *testing.T) {
	cfg := testConfig()
	cfg.RiskyDividendAR1.MuParamType = "stddev"
	_, err := NewModel(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	cfg = testConfig()
	cfg.RiskyDividendAR1.InitializationPolicy = "zero"
	_, err = NewModel(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestStepIsDeterministicPerSeed(t *testing.T) {
	a, err := NewModel(testConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := NewModel(testConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Step(), b.Step())
	}

	c, err := NewModel(testConfig(), rand.New(rand.NewSource(43)))
	require.NoError(t, err)
	var diverged bool
	for i := 0; i < 100; i++ {
		if a.Step() != c.Step() {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "different seeds must produce different paths")
}

func TestStepMeanReverts(t *testing.T) {
	cfg := testConfig()
	cfg.RiskyDividendAR1.MuDistParam = 0 // no noise
	cfg.RiskyDividendAR1.InitializationPolicy = InitExplicitValue
	initial := 10.0
	cfg.RiskyDividendAR1.InitialValue = &initial

	model, err := NewModel(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	prev := math.Abs(model.CurrentDividend() - 5.0)
	for i := 0; i < 50; i++ {
		model.Step()
		gap := math.Abs(model.CurrentDividend() - 5.0)
		assert.Less(t, gap, prev, "gap to d_bar must shrink every step")
		prev = gap
	}
}

func TestFundamentalValueZeroRate(t *testing.T) {
	cfg := testConfig()
	cfg.RiskFree.Rf = 0

	model, err := NewModel(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.True(t, math.IsInf(model.FundamentalValue(), 1))
}

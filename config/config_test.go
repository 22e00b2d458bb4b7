package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero runs", func(c *Config) { c.Random.Runs = 0 }},
		{"zero periods", func(c *Config) { c.Time.PeriodsTotal = 0 }},
		{"zero rounds", func(c *Config) { c.Time.RoundsPerPeriod = 0 }},
		{"negative price", func(c *Config) { c.Market.InitialPrice = -1 }},
		{"zero trade unit", func(c *Config) { c.Market.TradeUnit = 0 }},
		{"zero population", func(c *Config) { c.Agents.PopulationTotal = 0 }},
		{"threshold over one", func(c *Config) { c.Regulation.PriceLimit.Threshold = 1.0 }},
		{"negative tax rate", func(c *Config) { c.Regulation.TransactionTax.Rate = -0.1 }},
		{"bad replacement mode", func(c *Config) { c.Replacement.Mode = "respawn" }},
		{"bad return type", func(c *Config) { c.Metrics.MarketReturnType = "excess" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const baseYAML = `
random:
  seed: 7
time:
  periods_total: 20
  rounds_per_period: 5
`

const experimentsYAML = `
defaults:
  regulation:
    transaction_tax:
      enabled: true
      rate: 0.002
scenarios:
  high_tax:
    overrides:
      regulation:
        transaction_tax:
          rate: 0.01
  delayed_settlement:
    overrides:
      regulation:
        settlement_cycle:
          enabled: true
          type: T+1
`

func TestLoaderResolveBase(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "config.yaml", baseYAML)

	loader, err := NewLoader(base, "")
	require.NoError(t, err)

	cfg, err := loader.Resolve("")
	require.NoError(t, err)

	// Overridden values apply; everything else keeps its default.
	assert.Equal(t, int64(7), cfg.Random.Seed)
	assert.Equal(t, 20, cfg.Time.PeriodsTotal)
	assert.Equal(t, 5, cfg.Time.RoundsPerPeriod)
	assert.Equal(t, 100.0, cfg.Market.InitialPrice)
	assert.Equal(t, "cara", cfg.Preference.Policy)
}

func TestLoaderResolveScenario(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "config.yaml", baseYAML)
	experiments := writeFile(t, dir, "experiments.yaml", experimentsYAML)

	loader, err := NewLoader(base, experiments)
	require.NoError(t, err)

	// Experiment defaults merge over the base.
	cfg, err := loader.Resolve("high_tax")
	require.NoError(t, err)
	assert.True(t, cfg.Regulation.TransactionTax.Enabled)
	assert.Equal(t, 0.01, cfg.Regulation.TransactionTax.Rate)
	assert.Equal(t, int64(7), cfg.Random.Seed, "base values survive the merge")

	// A sibling scenario only overrides its own subtree.
	cfg, err = loader.Resolve("delayed_settlement")
	require.NoError(t, err)
	assert.Equal(t, 0.002, cfg.Regulation.TransactionTax.Rate, "experiment default, not scenario override")
	assert.True(t, cfg.Regulation.SettlementCycle.Enabled)
	assert.Equal(t, "T+1", cfg.Regulation.SettlementCycle.Type)
}

func TestLoaderUnknownScenario(t *testing.T) {
	dir := t.TempDir()
	experiments := writeFile(t, dir, "experiments.yaml", experimentsYAML)

	loader, err := NewLoader("", experiments)
	require.NoError(t, err)

	_, err = loader.Resolve("no_such_scenario")
	assert.Error(t, err)
}

func TestLoaderScenarioIDs(t *testing.T) {
	dir := t.TempDir()
	experiments := writeFile(t, dir, "experiments.yaml", experimentsYAML)

	loader, err := NewLoader("", experiments)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"high_tax", "delayed_settlement"}, loader.ScenarioIDs())
}

func TestLoaderRejectsInvalidMergedConfig(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "config.yaml", "time:\n  periods_total: -1\n")

	loader, err := NewLoader(base, "")
	require.NoError(t, err)

	_, err = loader.Resolve("")
	assert.Error(t, err)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RuntimeConfig holds process-level settings that do not belong in a
// scenario document: file locations, logging and concurrency.
type RuntimeConfig struct {
	// File locations
	ConfigPath      string
	ExperimentsPath string
	Scenario        string

	// Logging
	LogLevel  string
	LogPretty bool

	// Workers caps how many runs execute concurrently; 0 means one per CPU.
	Workers int
}

// LoadRuntime loads runtime settings from environment variables.
func LoadRuntime() (*RuntimeConfig, error) {
	v := viper.New()

	v.SetDefault("MARKETSIM_CONFIG", "")
	v.SetDefault("MARKETSIM_EXPERIMENTS", "")
	v.SetDefault("MARKETSIM_SCENARIO", "")
	v.SetDefault("MARKETSIM_LOG_LEVEL", "info")
	v.SetDefault("MARKETSIM_LOG_PRETTY", false)
	v.SetDefault("MARKETSIM_WORKERS", 0)

	v.AutomaticEnv()

	cfg := &RuntimeConfig{
		ConfigPath:      v.GetString("MARKETSIM_CONFIG"),
		ExperimentsPath: v.GetString("MARKETSIM_EXPERIMENTS"),
		Scenario:        v.GetString("MARKETSIM_SCENARIO"),
		LogLevel:        v.GetString("MARKETSIM_LOG_LEVEL"),
		LogPretty:       v.GetBool("MARKETSIM_LOG_PRETTY"),
		Workers:         v.GetInt("MARKETSIM_WORKERS"),
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("MARKETSIM_WORKERS must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/erain9/marketsim/config"
	"github.com/erain9/marketsim/pkg/logging"
	"github.com/erain9/marketsim/pkg/sim"
)

func main() {
	rt, err := config.LoadRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load runtime configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment values.
	configPath := flag.String("config", rt.ConfigPath, "path to base configuration YAML")
	experimentsPath := flag.String("experiments", rt.ExperimentsPath, "path to experiments YAML")
	scenario := flag.String("scenario", rt.Scenario, "scenario id to run (empty runs the base configuration)")
	listScenarios := flag.Bool("list-scenarios", false, "list scenario ids and exit")
	runs := flag.Int("runs", 0, "override the configured number of runs")
	seed := flag.Int64("seed", -1, "override the configured master seed (negative keeps the configured value)")
	workers := flag.Int("workers", rt.Workers, "max concurrent runs (0 means one per CPU)")
	logLevel := flag.String("log-level", rt.LogLevel, "log level (debug, info, warn, error)")
	logPretty := flag.Bool("log-pretty", rt.LogPretty, "human readable log output")
	flag.Parse()

	logging.Setup(logging.Config{Level: *logLevel, Pretty: *logPretty})

	loader, err := config.NewLoader(*configPath, *experimentsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if *listScenarios {
		for _, id := range loader.ScenarioIDs() {
			fmt.Println(id)
		}
		return
	}

	cfg, err := loader.Resolve(*scenario)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve scenario")
	}
	if *runs > 0 {
		cfg.Random.Runs = *runs
	}
	if *seed >= 0 {
		cfg.Random.Seed = *seed
	}

	runner, err := sim.NewRunner(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build runner")
	}
	runner.SetWorkers(*workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := runner.RunAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}

	if err := writeReport(os.Stdout, *scenario, cfg, results); err != nil {
		log.Fatal().Err(err).Msg("failed to write report")
	}
}

type report struct {
	Scenario string          `json:"scenario,omitempty"`
	Seed     int64           `json:"seed"`
	Runs     int             `json:"runs"`
	Mean     sim.Stats       `json:"mean"`
	Results  []sim.RunResult `json:"results"`
}

func writeReport(w *os.File, scenario string, cfg *config.Config, results []sim.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{
		Scenario: scenario,
		Seed:     cfg.Random.Seed,
		Runs:     len(results),
		Mean:     sim.Aggregate(results),
		Results:  results,
	})
}

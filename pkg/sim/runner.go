package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/erain9/marketsim/config"
)

// Runner executes the configured number of independent runs. Each run gets
// its own Engine and its own seed, so results are reproducible per run and
// independent of scheduling.
type Runner struct {
	cfg     *config.Config
	rules   *Rules
	workers int
}

// NewRunner validates the shared rule set once for all runs.
func NewRunner(cfg *config.Config) (*Runner, error) {
	rules, err := NewRules(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:     cfg,
		rules:   rules,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// SetWorkers caps run concurrency. Values below one restore the default.
func (r *Runner) SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	r.workers = n
}

// RunAll executes cfg.Random.Runs runs and returns their results ordered by
// run id. It stops early when the context is cancelled or a run fails.
func (r *Runner) RunAll(ctx context.Context) ([]RunResult, error) {
	runs := r.cfg.Random.Runs
	if runs < 1 {
		runs = 1
	}

	results := make([]RunResult, runs)
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	failed := make(chan struct{})
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			close(failed)
		})
	}

	workers := r.workers
	if workers > runs {
		workers = runs
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for runID := range jobs {
				engine, err := NewEngine(r.cfg, r.rules, runID)
				if err != nil {
					fail(err)
					return
				}
				result, err := engine.Run()
				if err != nil {
					fail(err)
					return
				}
				results[runID] = result
			}
		}()
	}

dispatch:
	for runID := 0; runID < runs; runID++ {
		if ctx.Err() != nil {
			fail(ctx.Err())
			break
		}
		select {
		case jobs <- runID:
		case <-failed:
			break dispatch
		case <-ctx.Done():
			fail(ctx.Err())
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	log.Info().Int("runs", runs).Msg("all runs completed")
	return results, nil
}

// Aggregate averages per-run statistics across results.
func Aggregate(results []RunResult) Stats {
	if len(results) == 0 {
		return Stats{}
	}
	var agg Stats
	for _, res := range results {
		agg.PriceVolatility += res.Stats.PriceVolatility
		agg.PriceDistortion += res.Stats.PriceDistortion
		agg.MeanVolume += res.Stats.MeanVolume
		agg.NoiseRisk += res.Stats.NoiseRisk
	}
	n := float64(len(results))
	agg.PriceVolatility /= n
	agg.PriceDistortion /= n
	agg.MeanVolume /= n
	agg.NoiseRisk /= n
	return agg
}

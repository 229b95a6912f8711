package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

// FitnessEvaluator runs headless flocks and scores their alignment.
type FitnessEvaluator struct {
	params      *ParamVector
	ticks       int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	mu          sync.Mutex
	lastQuality float64 // mean polarization from the most recent Evaluate call
	lastErr     error
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: max(int(ticks)/10, 1),
	}
}

// LastQuality returns the mean polarization of the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastErr returns the error of the most recent evaluation, if any seed failed.
func (fe *FitnessEvaluator) LastErr() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastErr
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	quality float64
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean polarization over the second half of each
// run, averaged across seeds. A failed run scores 0.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			q, err := fe.runSimulation(cfg, s)
			results[idx] = seedResult{quality: q, err: err}
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var firstErr error
	for _, r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		total += r.quality
	}
	quality := total / float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = quality
	fe.lastErr = firstErr
	fe.mu.Unlock()

	return -quality
}

// copyConfig creates a copy of the base config for one evaluation.
// Each seed runs its flock on a single worker; seeds run side by side.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Parallel.Workers = 1
	return &cfg
}

// runSimulation runs one seed and returns its settled polarization.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (float64, error) {
	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Config:        cfg,
		Seed:          seed,
		Headless:      true,
		StatsWindow:   fe.statsWindow,
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err != nil {
		return 0, fmt.Errorf("seed %d: %w", seed, err)
	}
	defer g.Unload()

	for g.Tick() < fe.ticks {
		if err := g.UpdateHeadless(); err != nil {
			return 0, fmt.Errorf("seed %d: %w", seed, err)
		}
	}
	return settledPolarization(windows), nil
}

// settledPolarization averages polarization over the second half of the
// windows, skipping the transient after spawn.
func settledPolarization(windows []telemetry.WindowStats) float64 {
	if len(windows) == 0 {
		return 0
	}
	tail := windows[len(windows)/2:]
	values := make([]float64, len(tail))
	for i, w := range tail {
		values[i] = w.Polarization
	}
	mean := stat.Mean(values, nil)
	if math.IsNaN(mean) {
		return 0
	}
	return mean
}

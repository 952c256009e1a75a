package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
	"ising-mc/internal/metropolis"
	"ising-mc/internal/observables"
	"ising-mc/internal/stats"
	pcore "ising-mc/pkg/core"
)

// ErrInvalidRuns is returned when a histogram is requested with fewer than one run.
var ErrInvalidRuns = errors.New("experiment: runs must be >= 1")

// Distribution holds the signed mean magnetisation per site of independent
// replicas at one parameter point.
type Distribution struct {
	Params core.Params
	Values []float64
}

// Histogram runs runs independent replicas of every point in cfg and collects
// the mean magnetisation per site of each. Replica r of point p draws from
// source p*runs+r.
func Histogram(ctx context.Context, cfg Config, runs int, opts ...Option) ([]Distribution, error) {
	if runs < 1 {
		return nil, ErrInvalidRuns
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(cfg.Seed, opts)
	points := cfg.Points()

	dists := make([]Distribution, len(points))
	for i, pt := range points {
		dists[i] = Distribution{Params: pt.Params, Values: make([]float64, runs)}
	}

	start := time.Now()
	err := forEach(ctx, len(points)*runs, cfg.Workers, func(j int) error {
		pt := points[j/runs]
		v, err := replicaMagnetization(cfg, pt, o.sources(j))
		if err != nil {
			return &PointError{Index: pt.Index, Params: pt.Params, Err: err}
		}
		dists[j/runs].Values[j%runs] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("histogram finished",
		zap.Int("points", len(points)),
		zap.Int("runs", runs),
		zap.Duration("elapsed", time.Since(start)),
	)
	return dists, nil
}

func replicaMagnetization(cfg Config, pt Point, rng pcore.RandomSource) (m float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	l, err := lattice.New(cfg.Shape, rng)
	if err != nil {
		return 0, err
	}
	eng, err := metropolis.New(pt.Params, rng)
	if err != nil {
		return 0, err
	}
	eng.Run(l, cfg.EquilibrationSweeps)
	var acc stats.Accumulator
	for i := 0; i < cfg.SamplingSweeps; i++ {
		eng.Sweep(l)
		acc.Record(observables.Magnetization(l))
	}
	return acc.Mean() / float64(l.Size()), nil
}

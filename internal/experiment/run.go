// Package experiment drives Metropolis sampling across a grid of parameter
// points and reduces each trajectory to intensive thermodynamic estimates.
package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"ising-mc/internal/lattice"
	"ising-mc/internal/metropolis"
	"ising-mc/internal/observables"
	"ising-mc/internal/stats"
	pcore "ising-mc/pkg/core"
)

// Run simulates every point of cfg and returns one record per point in sweep
// order. Points are independent and may run concurrently; each draws from
// its own random stream so the output does not depend on Config.Workers.
//
// On failure or cancellation the error is returned together with the
// records of the points that did complete, still in sweep order. A failed
// point never contributes a record.
func Run(ctx context.Context, cfg Config, opts ...Option) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	o := buildOptions(cfg.Seed, opts)
	points := cfg.Points()

	outs := make([]*pointOutput, len(points))
	start := time.Now()
	o.logger.Info("sweep started",
		zap.Stringer("shape", cfg.Shape),
		zap.Int("points", len(points)),
		zap.Int("equilibration", cfg.EquilibrationSweeps),
		zap.Int("sampling", cfg.SamplingSweeps),
		zap.Int("workers", workerCount(cfg.Workers, len(points))),
	)

	err := forEach(ctx, len(points), cfg.Workers, func(i int) error {
		pt := points[i]
		o.logger.Debug("point started", zap.Int("point", pt.Index), zap.Stringer("params", pt.Params))
		out, err := simulatePoint(cfg, pt, o.sources(pt.Index))
		if err != nil {
			o.logger.Warn("point failed", zap.Int("point", pt.Index), zap.Stringer("params", pt.Params), zap.Error(err))
			return &PointError{Index: pt.Index, Params: pt.Params, Err: err}
		}
		outs[i] = out
		o.logger.Debug("point finished",
			zap.Int("point", pt.Index),
			zap.Float64("energy", out.record.Energy.Mean),
			zap.Float64("magnetization", out.record.Magnetization.Mean),
			zap.Duration("elapsed", out.stats.Duration),
		)
		if o.observer != nil {
			o.observer.PointFinished(pt, out.record, out.stats)
		}
		return nil
	})

	var res Result
	for _, out := range outs {
		if out == nil {
			continue
		}
		res.Records = append(res.Records, out.record)
		res.Snapshots = append(res.Snapshots, out.snapshots...)
	}
	if err != nil {
		o.logger.Warn("sweep stopped", zap.Int("completed", len(res.Records)), zap.Error(err))
		return res, err
	}
	o.logger.Info("sweep finished", zap.Int("points", len(res.Records)), zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

type pointOutput struct {
	record    Record
	snapshots []Snapshot
	stats     PointStats
}

func simulatePoint(cfg Config, pt Point, rng pcore.RandomSource) (out *pointOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	start := time.Now()

	l, err := lattice.New(cfg.Shape, rng)
	if err != nil {
		return nil, err
	}
	eng, err := metropolis.New(pt.Params, rng)
	if err != nil {
		return nil, err
	}

	out = &pointOutput{}
	if cfg.Snapshots {
		out.snapshots = append(out.snapshots, newSnapshot(pt, StageInitial, 0, l))
	}
	eng.Run(l, cfg.EquilibrationSweeps)

	var s samples
	s.blocks = stats.NewBlocks(cfg.Blocks, cfg.SamplingSweeps)
	accepted := 0
	for i := 0; i < cfg.SamplingSweeps; i++ {
		accepted += eng.Sweep(l)
		s.record(l, pt)
	}
	if cfg.Snapshots {
		out.snapshots = append(out.snapshots, newSnapshot(pt, StageFinal, cfg.EquilibrationSweeps+cfg.SamplingSweeps, l))
	}

	n := l.Size()
	out.record = s.reduce(pt, n)
	out.record.Acceptance = float64(accepted) / float64(cfg.SamplingSweeps*n)
	if !out.record.finite() {
		return nil, ErrNonFinite
	}
	out.stats = PointStats{
		Duration:  time.Since(start),
		Sweeps:    cfg.EquilibrationSweeps + cfg.SamplingSweeps,
		Attempted: cfg.SamplingSweeps * n,
		Accepted:  accepted,
	}
	return out, nil
}

// samples holds the per-sweep accumulators of one point.
type samples struct {
	energy  stats.Accumulator
	mag     stats.Accumulator
	absMag  stats.Accumulator
	aligned stats.Accumulator
	entropy stats.Accumulator
	blocks  *stats.Blocks
}

func (s *samples) record(l *lattice.Lattice, pt Point) {
	e := observables.Energy(l, pt.Params)
	m := observables.Magnetization(l)
	a := observables.AlignmentCount(l)
	s.energy.Record(e)
	s.blocks.Record(e)
	s.mag.Record(m)
	s.absMag.Record(math.Abs(m))
	s.aligned.Record(a)
	s.entropy.Record(observables.Entropy(a, l.Size()))
}

func (s *samples) reduce(pt Point, size int) Record {
	n := float64(size)
	t := pt.Params.Temperature
	energy := Stat{Mean: s.energy.Mean() / n, StdDev: s.energy.StdDev() / n}
	entropy := Stat{Mean: s.entropy.Mean() / n, StdDev: s.entropy.StdDev() / n}

	heat := func(a *stats.Accumulator) float64 { return a.Variance() / (n * t * t) }
	_, heatStd := s.blocks.Spread(heat)

	return Record{
		Point:       pt.Index,
		Temperature: t,
		Field:       pt.Params.Field,
		Anisotropy:  pt.Params.Anisotropy,
		Energy:      energy,
		Entropy:     entropy,
		FreeEnergy: Stat{
			Mean:   energy.Mean - t*entropy.Mean,
			StdDev: energy.StdDev + t*entropy.StdDev,
		},
		Magnetization: Stat{Mean: math.Abs(s.mag.Mean()) / n, StdDev: s.absMag.StdDev() / n},
		HeatCapacity:  Stat{Mean: heat(&s.energy), StdDev: heatStd},
		Alignment:     Stat{Mean: s.aligned.Mean() / n, StdDev: s.aligned.StdDev() / n},
	}
}

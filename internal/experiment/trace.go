package experiment

import (
	"errors"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
	"ising-mc/internal/metropolis"
	pcore "ising-mc/pkg/core"
)

// ErrInvalidTrace is returned for negative sweep counts.
var ErrInvalidTrace = errors.New("experiment: trace sweeps must be non-negative")

// Trace equilibrates a fresh lattice and then records one snapshot after
// every one of sweeps further sweeps. The first element is the configuration
// right after burn-in.
func Trace(shape lattice.Shape, p core.Params, equilibration, sweeps int, rng pcore.RandomSource) ([]Snapshot, error) {
	if equilibration < 0 || sweeps < 0 {
		return nil, ErrInvalidTrace
	}
	l, err := lattice.New(shape, rng)
	if err != nil {
		return nil, err
	}
	eng, err := metropolis.New(p, rng)
	if err != nil {
		return nil, err
	}
	eng.Run(l, equilibration)

	pt := Point{Params: p}
	frames := make([]Snapshot, 0, sweeps+1)
	frames = append(frames, newSnapshot(pt, StageTrace, equilibration, l))
	for i := 1; i <= sweeps; i++ {
		eng.Sweep(l)
		frames = append(frames, newSnapshot(pt, StageTrace, equilibration+i, l))
	}
	return frames, nil
}

// Package metropolis implements single-spin-flip Metropolis updates with
// random sequential site selection.
package metropolis

import (
	"errors"
	"math"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
	pcore "ising-mc/pkg/core"
)

// ErrNilSource is returned when an Engine is built without randomness.
var ErrNilSource = errors.New("metropolis: nil random source")

// EnergyChange returns the energy difference that flipping site would cause:
// 2·ε·s·Σneighbours + 2·B·s.
func EnergyChange(l *lattice.Lattice, site int, p core.Params) float64 {
	s := float64(l.Spin(site))
	return 2*p.Anisotropy*s*float64(l.NeighborSum(site)) + 2*p.Field*s
}

// AcceptanceProbability is the Metropolis criterion min(1, exp(-ΔE/T)).
func AcceptanceProbability(deltaE, temperature float64) float64 {
	if deltaE < 0 {
		return 1
	}
	return math.Exp(-deltaE / temperature)
}

// Engine advances a lattice under fixed parameters. It holds no chain state
// of its own; every call reads and writes the lattice it is given.
type Engine struct {
	params core.Params
	rng    pcore.RandomSource
}

// New returns an Engine after validating the parameters.
func New(p core.Params, rng pcore.RandomSource) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrNilSource
	}
	return &Engine{params: p, rng: rng}, nil
}

// Params returns the parameters the engine samples at.
func (e *Engine) Params() core.Params { return e.params }

// ProposeAndUpdate attempts to flip site and reports whether the flip was
// accepted. A uniform draw is consumed only when ΔE >= 0.
func (e *Engine) ProposeAndUpdate(l *lattice.Lattice, site int) bool {
	dE := EnergyChange(l, site, e.params)
	if dE < 0 || e.rng.Float64() < AcceptanceProbability(dE, e.params.Temperature) {
		l.Flip(site)
		return true
	}
	return false
}

// Sweep performs Size() update attempts, each at a site drawn uniformly with
// replacement, and returns how many were accepted.
func (e *Engine) Sweep(l *lattice.Lattice) int {
	n := l.Size()
	accepted := 0
	for i := 0; i < n; i++ {
		if e.ProposeAndUpdate(l, e.rng.IntN(n)) {
			accepted++
		}
	}
	return accepted
}

// Run performs sweeps full sweeps and returns the total accepted count.
func (e *Engine) Run(l *lattice.Lattice, sweeps int) int {
	accepted := 0
	for i := 0; i < sweeps; i++ {
		accepted += e.Sweep(l)
	}
	return accepted
}

// Package chain runs a single long-lived Metropolis chain on a 2D lattice
// for interactive viewing.
package chain

import (
	"strconv"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
	"ising-mc/internal/metropolis"
	"ising-mc/internal/observables"
	pcore "ising-mc/pkg/core"
)

// KeySweepsPerStep controls how many sweeps one Step performs.
const KeySweepsPerStep = "sweeps_per_step"

// Config seeds a Chain.
type Config struct {
	Rows, Cols    int
	Params        core.Params
	SweepsPerStep int
	Seed          int64
}

// DefaultConfig returns a 128x128 ferromagnet near the critical point.
func DefaultConfig() Config {
	return Config{Rows: 128, Cols: 128, Params: core.DefaultParams(), SweepsPerStep: 1, Seed: 42}
}

// Chain is a core.Sim driving one lattice with Metropolis sweeps.
type Chain struct {
	cfg     Config
	lat     *lattice.Lattice
	eng     *metropolis.Engine
	rng     *pcore.RNG
	cells   []uint8
	sweeps  int
	tried   int
	flipped int
}

var (
	_ core.Sim                       = (*Chain)(nil)
	_ core.ParameterControlsProvider = (*Chain)(nil)
	_ core.FloatParameterSetter      = (*Chain)(nil)
	_ core.IntParameterSetter        = (*Chain)(nil)
)

// New validates cfg and builds a chain seeded with cfg.Seed.
func New(cfg Config) (*Chain, error) {
	if err := lattice.Torus(cfg.Rows, cfg.Cols).Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.SweepsPerStep < 1 {
		cfg.SweepsPerStep = 1
	}
	c := &Chain{cfg: cfg, cells: make([]uint8, cfg.Rows*cfg.Cols)}
	c.Reset(cfg.Seed)
	return c, nil
}

func (c *Chain) Name() string { return "ising" }

func (c *Chain) Size() core.Size { return core.Size{W: c.cfg.Cols, H: c.cfg.Rows} }

// Reset draws a fresh random configuration from seed.
func (c *Chain) Reset(seed int64) {
	c.cfg.Seed = seed
	c.rng = pcore.NewRNG(seed)
	lat, err := lattice.New(lattice.Torus(c.cfg.Rows, c.cfg.Cols), c.rng)
	if err != nil {
		panic(err)
	}
	c.lat = lat
	c.eng = c.newEngine(c.cfg.Params)
	c.sweeps, c.tried, c.flipped = 0, 0, 0
}

func (c *Chain) newEngine(p core.Params) *metropolis.Engine {
	eng, err := metropolis.New(p, c.rng)
	if err != nil {
		panic(err)
	}
	return eng
}

// Step performs SweepsPerStep sweeps.
func (c *Chain) Step() {
	for i := 0; i < c.cfg.SweepsPerStep; i++ {
		c.flipped += c.eng.Sweep(c.lat)
		c.tried += c.lat.Size()
		c.sweeps++
	}
}

// Cells maps up spins to 1 and down spins to 0. The slice is reused.
func (c *Chain) Cells() []uint8 {
	for i := range c.cells {
		if c.lat.Spin(i) > 0 {
			c.cells[i] = 1
		} else {
			c.cells[i] = 0
		}
	}
	return c.cells
}

// Lattice exposes the live lattice. Callers must not mutate it.
func (c *Chain) Lattice() *lattice.Lattice { return c.lat }

// Params returns the Hamiltonian currently sampled.
func (c *Chain) Params() core.Params { return c.cfg.Params }

// Sweeps returns the number of sweeps since the last reset.
func (c *Chain) Sweeps() int { return c.sweeps }

// Readout is the instantaneous state of the chain.
type Readout struct {
	Energy        float64
	Magnetization float64
	Acceptance    float64
	Sweeps        int
}

// Readout reports per-site energy and magnetisation of the current
// configuration and the acceptance ratio since reset.
func (c *Chain) Readout() Readout {
	n := float64(c.lat.Size())
	r := Readout{
		Energy:        observables.Energy(c.lat, c.cfg.Params) / n,
		Magnetization: observables.Magnetization(c.lat) / n,
		Sweeps:        c.sweeps,
	}
	if c.tried > 0 {
		r.Acceptance = float64(c.flipped) / float64(c.tried)
	}
	return r
}

// Parameters lists the Hamiltonian, the step size and the live readout.
func (c *Chain) Parameters() core.ParameterSnapshot {
	r := c.Readout()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		c.cfg.Params.Group(),
		{Name: "Chain", Params: []core.Parameter{
			core.IntParam(KeySweepsPerStep, "Sweeps/step", c.cfg.SweepsPerStep),
		}},
		{Name: "Readout", Params: []core.Parameter{
			core.FloatParam("energy", "E/N", round(r.Energy)),
			core.FloatParam("magnetization", "M/N", round(r.Magnetization)),
			core.FloatParam("acceptance", "Acceptance", round(r.Acceptance)),
			core.IntParam("sweeps", "Sweeps", r.Sweeps),
		}},
	}}
}

// ParameterControls exposes T, B, ε and the step size to the HUD.
func (c *Chain) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: core.KeyTemperature, Label: "T", Type: core.ParamTypeFloat, Step: 0.05, Min: 0.05, HasMin: true, Max: 10, HasMax: true},
		{Key: core.KeyField, Label: "B", Type: core.ParamTypeFloat, Step: 0.05, Min: -2, HasMin: true, Max: 2, HasMax: true},
		{Key: core.KeyAnisotropy, Label: "eps", Type: core.ParamTypeFloat, Step: 0.1, Min: -2, HasMin: true, Max: 2, HasMax: true},
		{Key: KeySweepsPerStep, Label: "Sweeps/step", Type: core.ParamTypeInt, Step: 1, Min: 1, HasMin: true, Max: 100, HasMax: true},
	}
}

// SetFloatParameter changes T, B or ε without resetting the lattice.
func (c *Chain) SetFloatParameter(key string, value float64) bool {
	p := c.cfg.Params
	switch key {
	case core.KeyTemperature:
		p.Temperature = value
	case core.KeyField:
		p.Field = value
	case core.KeyAnisotropy:
		p.Anisotropy = value
	default:
		return false
	}
	if p.Validate() != nil {
		return false
	}
	c.cfg.Params = p
	c.eng = c.newEngine(p)
	return true
}

// SetIntParameter changes the number of sweeps per step.
func (c *Chain) SetIntParameter(key string, value int) bool {
	if key != KeySweepsPerStep || value < 1 {
		return false
	}
	c.cfg.SweepsPerStep = value
	return true
}

func round(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	return f
}

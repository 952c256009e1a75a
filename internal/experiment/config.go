package experiment

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
)

// ErrInvalidConfig wraps every configuration problem found by Validate.
var ErrInvalidConfig = errors.New("experiment: invalid config")

// Config describes one parameter sweep.
type Config struct {
	Shape lattice.Shape

	// Temperatures must be non-empty. Empty Fields default to {0}, empty
	// Anisotropies to {1}.
	Temperatures []float64
	Fields       []float64
	Anisotropies []float64

	EquilibrationSweeps int
	SamplingSweeps      int

	// Blocks is the number of batches used for the heat capacity error.
	Blocks int

	Seed    int64
	Workers int

	// Snapshots captures the lattice before burn-in and after sampling.
	Snapshots bool
}

// DefaultConfig returns a small 2D sweep across the critical region.
func DefaultConfig() Config {
	return Config{
		Shape:               lattice.Torus(16, 16),
		Temperatures:        []float64{1.5, 2.0, 2.25, 2.5, 3.0},
		Fields:              []float64{0},
		Anisotropies:        []float64{1},
		EquilibrationSweeps: 1000,
		SamplingSweeps:      5000,
		Blocks:              10,
		Seed:                42,
	}
}

// Validate collects every problem with the configuration.
func (c Config) Validate() error {
	var errs error
	if err := c.Shape.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if len(c.Temperatures) == 0 {
		errs = multierr.Append(errs, errors.New("no temperatures to sweep"))
	}
	for _, t := range c.Temperatures {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("temperature %v must be positive and finite", t))
		}
	}
	for _, b := range c.Fields {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			errs = multierr.Append(errs, fmt.Errorf("field %v must be finite", b))
		}
	}
	for _, e := range c.Anisotropies {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			errs = multierr.Append(errs, fmt.Errorf("anisotropy %v must be finite", e))
		}
	}
	if c.EquilibrationSweeps < 0 {
		errs = multierr.Append(errs, fmt.Errorf("equilibration sweeps must be >= 0, got %d", c.EquilibrationSweeps))
	}
	if c.SamplingSweeps < 1 {
		errs = multierr.Append(errs, fmt.Errorf("sampling sweeps must be >= 1, got %d", c.SamplingSweeps))
	}
	if c.Blocks < 0 {
		errs = multierr.Append(errs, fmt.Errorf("blocks must be >= 0, got %d", c.Blocks))
	}
	if c.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// Point is one (T, B, ε) combination and its position in sweep order.
type Point struct {
	Index  int
	Params core.Params
}

// Points enumerates the Cartesian product with anisotropy outermost, then
// field, then temperature.
func (c Config) Points() []Point {
	fields := c.Fields
	if len(fields) == 0 {
		fields = []float64{0}
	}
	anisotropies := c.Anisotropies
	if len(anisotropies) == 0 {
		anisotropies = []float64{1}
	}
	points := make([]Point, 0, len(anisotropies)*len(fields)*len(c.Temperatures))
	for _, eps := range anisotropies {
		for _, b := range fields {
			for _, t := range c.Temperatures {
				points = append(points, Point{
					Index:  len(points),
					Params: core.Params{Temperature: t, Anisotropy: eps, Field: b},
				})
			}
		}
	}
	return points
}

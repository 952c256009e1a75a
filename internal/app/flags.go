package app

import (
	"flag"

	"ising-mc/internal/chain"
	"ising-mc/internal/core"
)

// Config represents the command-line parameters of the viewer.
type Config struct {
	Rows        int
	Cols        int
	Scale       int
	TPS         int
	Seed        int64
	Temperature float64
	Field       float64
	Anisotropy  float64
	Sweeps      int
	PanelWidth  int
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	p := core.DefaultParams()
	return &Config{
		Rows: 128, Cols: 128, Scale: 4, TPS: 30, Seed: 42,
		Temperature: p.Temperature, Field: p.Field, Anisotropy: p.Anisotropy,
		Sweeps: 1, PanelWidth: 220,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Rows, "rows", c.Rows, "lattice rows")
	fs.IntVar(&c.Cols, "cols", c.Cols, "lattice columns")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "chain steps per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for the initial configuration")
	fs.Float64Var(&c.Temperature, "t", c.Temperature, "temperature")
	fs.Float64Var(&c.Field, "b", c.Field, "external field")
	fs.Float64Var(&c.Anisotropy, "eps", c.Anisotropy, "coupling (anisotropy)")
	fs.IntVar(&c.Sweeps, "sweeps", c.Sweeps, "sweeps per chain step")
	fs.IntVar(&c.PanelWidth, "panel", c.PanelWidth, "control panel width in pixels (0 hides it)")
}

// Chain converts the flags into a chain configuration.
func (c *Config) Chain() chain.Config {
	return chain.Config{
		Rows:          c.Rows,
		Cols:          c.Cols,
		Params:        core.Params{Temperature: c.Temperature, Field: c.Field, Anisotropy: c.Anisotropy},
		SweepsPerStep: c.Sweeps,
		Seed:          c.Seed,
	}
}

// Package config loads sweep definitions from YAML and applies flag-style
// overrides on top.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"ising-mc/internal/experiment"
	"ising-mc/internal/lattice"
	"ising-mc/internal/logging"
)

// ErrInvalid wraps every problem reported by Validate.
var ErrInvalid = errors.New("config: invalid")

// File mirrors the YAML document.
type File struct {
	Lattice      LatticeSpec     `yaml:"lattice"`
	Temperatures TemperatureSpec `yaml:"temperatures"`
	Fields       []float64       `yaml:"fields,omitempty"`
	Anisotropies []float64       `yaml:"anisotropies,omitempty"`
	Sweeps       SweepSpec       `yaml:"sweeps"`
	Seed         int64           `yaml:"seed"`
	Workers      int             `yaml:"workers"`
	Snapshots    bool            `yaml:"snapshots"`
	Histogram    HistogramSpec   `yaml:"histogram"`
	Output       OutputSpec      `yaml:"output"`
	Log          LogSpec         `yaml:"log"`
	Metrics      MetricsSpec     `yaml:"metrics"`
}

type LatticeSpec struct {
	Topology string `yaml:"topology"`
	Extents  []int  `yaml:"extents"`
}

// TemperatureSpec is either an explicit list or an inclusive range.
type TemperatureSpec struct {
	Values []float64 `yaml:"values,omitempty"`
	Low    float64   `yaml:"low,omitempty"`
	High   float64   `yaml:"high,omitempty"`
	Step   float64   `yaml:"step,omitempty"`
}

type SweepSpec struct {
	Equilibration int `yaml:"equilibration"`
	Sampling      int `yaml:"sampling"`
	Blocks        int `yaml:"blocks"`
}

type HistogramSpec struct {
	Runs int `yaml:"runs"`
}

type OutputSpec struct {
	Records   string `yaml:"records,omitempty"`
	Snapshots string `yaml:"snapshots,omitempty"`
	Database  string `yaml:"database,omitempty"`
}

type LogSpec struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsSpec struct {
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	d := experiment.DefaultConfig()
	return File{
		Lattice:      LatticeSpec{Topology: d.Shape.Topology, Extents: append([]int(nil), d.Shape.Extents...)},
		Temperatures: TemperatureSpec{Low: 1.5, High: 3.5, Step: 0.25},
		Fields:       []float64{0},
		Anisotropies: []float64{1},
		Sweeps: SweepSpec{
			Equilibration: d.EquilibrationSweeps,
			Sampling:      d.SamplingSweeps,
			Blocks:        d.Blocks,
		},
		Seed:      d.Seed,
		Histogram: HistogramSpec{Runs: 100},
		Log:       LogSpec{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads path on top of Default. An empty path yields the defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse decodes a YAML document on top of Default and validates it.
func Parse(b []byte) (File, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Marshal renders the configuration back to YAML.
func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// List expands the temperature specification. Range endpoints are inclusive
// up to a small tolerance.
func (t TemperatureSpec) List() []float64 {
	if len(t.Values) > 0 {
		return append([]float64(nil), t.Values...)
	}
	if t.Step <= 0 || t.High < t.Low {
		return nil
	}
	n := int(math.Floor((t.High-t.Low)/t.Step+1e-9)) + 1
	if n == 1 {
		return []float64{t.Low}
	}
	return floats.Span(make([]float64, n), t.Low, t.Low+float64(n-1)*t.Step)
}

// UnmarshalYAML accepts either a mapping or a bare sequence of values. The
// decoded spec replaces the previous one entirely.
func (t *TemperatureSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var vals []float64
		if err := node.Decode(&vals); err != nil {
			return err
		}
		*t = TemperatureSpec{Values: vals}
		return nil
	}
	type plain TemperatureSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = TemperatureSpec(p)
	return nil
}

func (t TemperatureSpec) validate() error {
	if len(t.Values) > 0 {
		if t.Step != 0 || t.Low != 0 || t.High != 0 {
			return errors.New("temperatures: give either values or a low/high/step range, not both")
		}
		return nil
	}
	var errs error
	if t.Step <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("temperatures: step must be positive, got %v", t.Step))
	}
	if t.High < t.Low {
		errs = multierr.Append(errs, fmt.Errorf("temperatures: high %v below low %v", t.High, t.Low))
	}
	return errs
}

// Experiment converts the file into a driver configuration.
func (f File) Experiment() experiment.Config {
	return experiment.Config{
		Shape:               lattice.Shape{Topology: f.Lattice.Topology, Extents: append([]int(nil), f.Lattice.Extents...)},
		Temperatures:        f.Temperatures.List(),
		Fields:              append([]float64(nil), f.Fields...),
		Anisotropies:        append([]float64(nil), f.Anisotropies...),
		EquilibrationSweeps: f.Sweeps.Equilibration,
		SamplingSweeps:      f.Sweeps.Sampling,
		Blocks:              f.Sweeps.Blocks,
		Seed:                f.Seed,
		Workers:             f.Workers,
		Snapshots:           f.Snapshots,
	}
}

// Validate reports every problem in the file at once.
func (f File) Validate() error {
	var errs error
	errs = multierr.Append(errs, f.Temperatures.validate())
	if err := f.Experiment().Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if f.Histogram.Runs < 0 {
		errs = multierr.Append(errs, fmt.Errorf("histogram: runs must be >= 0, got %d", f.Histogram.Runs))
	}
	switch f.Log.Format {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		errs = multierr.Append(errs, fmt.Errorf("log: unknown format %q", f.Log.Format))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return nil
}

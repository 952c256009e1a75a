package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"ising-mc/internal/lattice"
)

var errUnknownKey = errors.New("unknown key")

// ParseOverrides splits key=value pairs as given on the command line.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	var errs error
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			errs = multierr.Append(errs, fmt.Errorf("override %q: want key=value", kv))
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, errs
}

// shapeKeys are applied first and in this order: size fills extents for
// whatever topology is in effect.
var shapeKeys = []string{"topology", "extents", "size"}

// ApplyOverrides sets fields from flag-style key/value pairs. Unknown keys
// and unparsable values are all reported; valid keys are applied regardless.
func (f *File) ApplyOverrides(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for _, k := range shapeKeys {
		if _, ok := kv[k]; ok {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(kv))
	for k := range kv {
		if !slices.Contains(shapeKeys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var errs error
	for _, key := range keys {
		if err := f.apply(key, kv[key]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("override %s=%s: %w", key, kv[key], err))
		}
	}
	return errs
}

func (f *File) apply(key, value string) error {
	var err error
	switch key {
	case "topology":
		f.Lattice.Topology = value
	case "extents":
		f.Lattice.Extents, err = parseInts(value)
	case "size":
		var n int
		if n, err = strconv.Atoi(value); err == nil {
			rank, ok := lattice.Rank(f.Lattice.Topology)
			if !ok {
				rank = len(f.Lattice.Extents)
			}
			f.Lattice.Extents = make([]int, rank)
			for i := range f.Lattice.Extents {
				f.Lattice.Extents[i] = n
			}
		}
	case "temperatures":
		var vals []float64
		if vals, err = parseFloats(value); err == nil {
			f.Temperatures = TemperatureSpec{Values: vals}
		}
	case "t_low":
		f.Temperatures.Values = nil
		f.Temperatures.Low, err = strconv.ParseFloat(value, 64)
	case "t_high":
		f.Temperatures.Values = nil
		f.Temperatures.High, err = strconv.ParseFloat(value, 64)
	case "t_step":
		f.Temperatures.Values = nil
		f.Temperatures.Step, err = strconv.ParseFloat(value, 64)
	case "fields":
		f.Fields, err = parseFloats(value)
	case "anisotropies":
		f.Anisotropies, err = parseFloats(value)
	case "equilibration":
		f.Sweeps.Equilibration, err = strconv.Atoi(value)
	case "sampling":
		f.Sweeps.Sampling, err = strconv.Atoi(value)
	case "blocks":
		f.Sweeps.Blocks, err = strconv.Atoi(value)
	case "seed":
		f.Seed, err = strconv.ParseInt(value, 10, 64)
	case "workers":
		f.Workers, err = strconv.Atoi(value)
	case "snapshots":
		f.Snapshots, err = strconv.ParseBool(value)
	case "runs":
		f.Histogram.Runs, err = strconv.Atoi(value)
	case "records":
		f.Output.Records = value
	case "snapshot_file":
		f.Output.Snapshots = value
	case "database":
		f.Output.Database = value
	case "log_level":
		f.Log.Level = value
	case "log_format":
		f.Log.Format = value
	case "metrics":
		f.Metrics.Listen = value
	default:
		return errUnknownKey
	}
	return err
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

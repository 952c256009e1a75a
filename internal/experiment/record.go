package experiment

import (
	"math"
	"time"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
)

// Stat is a mean with its standard deviation.
type Stat struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
}

func (s Stat) finite() bool {
	return !math.IsNaN(s.Mean) && !math.IsInf(s.Mean, 0) && !math.IsNaN(s.StdDev) && !math.IsInf(s.StdDev, 0)
}

// Record summarises one parameter point. All quantities are per site.
type Record struct {
	// Point is the sweep position of the parameter point.
	Point       int     `json:"point"`
	Temperature float64 `json:"temperature"`
	Field       float64 `json:"field"`
	Anisotropy  float64 `json:"anisotropy"`

	Energy        Stat `json:"energy"`
	Entropy       Stat `json:"entropy"`
	FreeEnergy    Stat `json:"free_energy"`
	Magnetization Stat `json:"magnetization"`
	HeatCapacity  Stat `json:"heat_capacity"`

	// Alignment is the mean alignment count per site, in [0, 1].
	Alignment Stat `json:"alignment"`
	// Acceptance is the fraction of accepted flips while sampling.
	Acceptance float64 `json:"acceptance"`
}

// Params returns the parameter point the record belongs to.
func (r Record) Params() core.Params {
	return core.Params{Temperature: r.Temperature, Anisotropy: r.Anisotropy, Field: r.Field}
}

func (r Record) finite() bool {
	for _, s := range []Stat{r.Energy, r.Entropy, r.FreeEnergy, r.Magnetization, r.HeatCapacity, r.Alignment} {
		if !s.finite() {
			return false
		}
	}
	return true
}

// Snapshot stages.
const (
	StageInitial = "initial"
	StageFinal   = "final"
	StageTrace   = "trace"
)

// Snapshot is a lattice configuration tagged with the parameters that
// produced it.
type Snapshot struct {
	Point       int      `json:"point"`
	Stage       string   `json:"stage"`
	Sweep       int      `json:"sweep"`
	Temperature float64  `json:"temperature"`
	Field       float64  `json:"field"`
	Anisotropy  float64  `json:"anisotropy"`
	Spins       [][]int8 `json:"spins"`
}

func newSnapshot(pt Point, stage string, sweep int, l *lattice.Lattice) Snapshot {
	return Snapshot{
		Point:       pt.Index,
		Stage:       stage,
		Sweep:       sweep,
		Temperature: pt.Params.Temperature,
		Field:       pt.Params.Field,
		Anisotropy:  pt.Params.Anisotropy,
		Spins:       l.Grid(),
	}
}

// Result holds the records of completed points in sweep order and, when
// requested, their snapshots.
type Result struct {
	Records   []Record
	Snapshots []Snapshot
}

// PointStats describes the cost of one point. Attempted and Accepted count
// flips of the sampling phase only.
type PointStats struct {
	Duration  time.Duration
	Sweeps    int
	Attempted int
	Accepted  int
}

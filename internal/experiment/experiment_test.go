package experiment

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
	pcore "ising-mc/pkg/core"
)

func smallConfig() Config {
	return Config{
		Shape:               lattice.Torus(4, 4),
		Temperatures:        []float64{1.5, 2.5, 4},
		EquilibrationSweeps: 50,
		SamplingSweeps:      200,
		Blocks:              4,
		Seed:                7,
	}
}

func TestPointsOrderAnisotropyFieldTemperature(t *testing.T) {
	cfg := Config{
		Temperatures: []float64{1, 2},
		Fields:       []float64{0, 0.5},
		Anisotropies: []float64{1, -1},
	}
	var got []core.Params
	for i, pt := range cfg.Points() {
		assert.Equal(t, i, pt.Index)
		got = append(got, pt.Params)
	}
	want := []core.Params{
		{Temperature: 1, Field: 0, Anisotropy: 1},
		{Temperature: 2, Field: 0, Anisotropy: 1},
		{Temperature: 1, Field: 0.5, Anisotropy: 1},
		{Temperature: 2, Field: 0.5, Anisotropy: 1},
		{Temperature: 1, Field: 0, Anisotropy: -1},
		{Temperature: 2, Field: 0, Anisotropy: -1},
		{Temperature: 1, Field: 0.5, Anisotropy: -1},
		{Temperature: 2, Field: 0.5, Anisotropy: -1},
	}
	assert.Equal(t, want, got)
}

func TestPointsDefaultFieldAndAnisotropy(t *testing.T) {
	pts := Config{Temperatures: []float64{3}}.Points()
	require.Len(t, pts, 1)
	assert.Equal(t, core.Params{Temperature: 3, Anisotropy: 1, Field: 0}, pts[0].Params)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{
		Shape:          lattice.Torus(1, 4),
		Temperatures:   []float64{-1},
		Fields:         []float64{math.NaN()},
		SamplingSweeps: 0,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, lattice.ErrInvalidShape)
	msg := err.Error()
	assert.Contains(t, msg, "temperature -1")
	assert.Contains(t, msg, "field NaN")
	assert.Contains(t, msg, "sampling sweeps")

	require.NoError(t, smallConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())

	empty := smallConfig()
	empty.Temperatures = nil
	assert.ErrorContains(t, empty.Validate(), "no temperatures")
}

func TestRunReproducibleAcrossWorkerCounts(t *testing.T) {
	cfg := smallConfig()
	cfg.Fields = []float64{0, 0.3}

	cfg.Workers = 1
	serial, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Workers = 4
	parallel, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, serial.Records, 6)
	assert.Equal(t, serial.Records, parallel.Records)
	for i, pt := range cfg.Points() {
		assert.Equal(t, pt.Params, serial.Records[i].Params())
		assert.Equal(t, i, serial.Records[i].Point)
	}
}

func TestRunSeedChangesResults(t *testing.T) {
	cfg := smallConfig()
	a, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Seed++
	b, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Records, b.Records)
}

func TestRunOneDimensionalRingMatchesExactEnergy(t *testing.T) {
	cfg := Config{
		Shape:               lattice.Ring(10),
		Temperatures:        []float64{2},
		EquilibrationSweeps: 1000,
		SamplingSweeps:      20000,
		Blocks:              10,
		Seed:                2024,
	}
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]

	// Periodic ring of N spins: U/N = -(t + t^(N-1)) / (1 + t^N), t = tanh(1/T).
	th := math.Tanh(0.5)
	exact := -(th + math.Pow(th, 9)) / (1 + math.Pow(th, 10))
	assert.InDelta(t, exact, rec.Energy.Mean, 0.05)
	assert.GreaterOrEqual(t, rec.Energy.Mean, -1.0)
	assert.LessOrEqual(t, rec.Magnetization.Mean, 0.5)
	assert.Greater(t, rec.HeatCapacity.Mean, 0.0)
	assert.GreaterOrEqual(t, rec.HeatCapacity.StdDev, 0.0)
	assert.InDelta(t, rec.Energy.Mean-2*rec.Entropy.Mean, rec.FreeEnergy.Mean, 1e-12)
	assert.InDelta(t, rec.Energy.StdDev+2*rec.Entropy.StdDev, rec.FreeEnergy.StdDev, 1e-12)
}

func TestRunRecordBounds(t *testing.T) {
	res, err := Run(context.Background(), smallConfig())
	require.NoError(t, err)
	for _, rec := range res.Records {
		assert.GreaterOrEqual(t, rec.Energy.Mean, -2.0)
		assert.LessOrEqual(t, rec.Energy.Mean, 2.0)
		assert.GreaterOrEqual(t, rec.Entropy.Mean, 0.0)
		assert.LessOrEqual(t, rec.Entropy.Mean, math.Ln2+1e-12)
		assert.GreaterOrEqual(t, rec.Magnetization.Mean, 0.0)
		assert.LessOrEqual(t, rec.Magnetization.Mean, 1.0)
		assert.GreaterOrEqual(t, rec.Alignment.Mean, 0.0)
		assert.LessOrEqual(t, rec.Alignment.Mean, 1.0)
		assert.GreaterOrEqual(t, rec.HeatCapacity.Mean, 0.0)
		assert.Greater(t, rec.Acceptance, 0.0)
		assert.LessOrEqual(t, rec.Acceptance, 1.0)
	}
	// Hotter points accept more moves.
	assert.Less(t, res.Records[0].Acceptance, res.Records[2].Acceptance)
}

func TestRunSnapshots(t *testing.T) {
	cfg := smallConfig()
	cfg.Temperatures = []float64{1.5, 3}
	cfg.Snapshots = true
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Snapshots, 4)

	stages := []string{StageInitial, StageFinal, StageInitial, StageFinal}
	temps := []float64{1.5, 1.5, 3, 3}
	for i, s := range res.Snapshots {
		assert.Equal(t, stages[i], s.Stage)
		assert.Equal(t, temps[i], s.Temperature)
		assert.Equal(t, 1.0, s.Anisotropy)
		require.Len(t, s.Spins, 4)
		for _, row := range s.Spins {
			require.Len(t, row, 4)
			for _, v := range row {
				assert.True(t, v == 1 || v == -1)
			}
		}
	}
	assert.Equal(t, 0, res.Snapshots[0].Sweep)
	assert.Equal(t, cfg.EquilibrationSweeps+cfg.SamplingSweeps, res.Snapshots[1].Sweep)

	cfg.Snapshots = false
	res, err = Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Snapshots)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, smallConfig())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Records)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.SamplingSweeps = 0
	_, err := Run(context.Background(), cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

type panickySource struct{}

func (panickySource) IntN(int) int     { panic("broken source") }
func (panickySource) Float64() float64 { panic("broken source") }

func TestRunPointFailureIsReported(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 1
	streams := pcore.Streams(cfg.Seed)
	res, err := Run(context.Background(), cfg, WithSources(func(point int) pcore.RandomSource {
		if point == 1 {
			return panickySource{}
		}
		return streams(point)
	}))
	require.Error(t, err)

	var pe *PointError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, 2.5, pe.Params.Temperature)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "T=2.5")

	points := cfg.Points()
	for _, rec := range res.Records {
		assert.NotEqual(t, 2.5, rec.Temperature)
		assert.Equal(t, points[rec.Point].Params, rec.Params())
	}
}

// countingSources hands out per-point streams and remembers which points
// asked for one, i.e. which points actually started.
type countingSources struct {
	mu      sync.Mutex
	started []int
	next    pcore.SourceFactory
	fail    int
}

func (c *countingSources) source(point int) pcore.RandomSource {
	c.mu.Lock()
	c.started = append(c.started, point)
	c.mu.Unlock()
	if point == c.fail {
		return panickySource{}
	}
	return c.next(point)
}

func TestRunStopsIssuingPointsAfterFailure(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 1
	src := &countingSources{next: pcore.Streams(cfg.Seed), fail: 0}

	res, err := Run(context.Background(), cfg, WithSources(src.source))
	var pe *PointError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 0, pe.Index)
	assert.Empty(t, res.Records)
	assert.Equal(t, []int{0}, src.started)
}

// cancelAfter cancels the run once the given number of points have finished.
type cancelAfter struct {
	mu     sync.Mutex
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) PointFinished(Point, Record, PointStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n--
	if c.n == 0 {
		c.cancel()
	}
}

func TestRunCancelledMidSweep(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &countingSources{next: pcore.Streams(cfg.Seed), fail: -1}

	// Point 0 is still in flight when the context is cancelled.
	res, err := Run(ctx, cfg, WithSources(src.source), WithObserver(&cancelAfter{n: 1, cancel: cancel}))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 0, res.Records[0].Point)
	assert.Equal(t, 1.5, res.Records[0].Temperature)
	assert.Equal(t, []int{0}, src.started)
}

func TestForEachLateCancelIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	err := forEach(ctx, 3, 1, func(i int) error {
		ran++
		if i == 2 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ran)
}

type countingObserver struct {
	mu     sync.Mutex
	points []int
	stats  []PointStats
}

func (c *countingObserver) PointFinished(pt Point, _ Record, st PointStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, pt.Index)
	c.stats = append(c.stats, st)
}

func TestRunNotifiesObserver(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 2
	obs := &countingObserver{}
	_, err := Run(context.Background(), cfg, WithObserver(obs))
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{0, 1, 2}, obs.points)
	sweeps := cfg.EquilibrationSweeps + cfg.SamplingSweeps
	for _, st := range obs.stats {
		assert.Equal(t, sweeps, st.Sweeps)
		// Attempts and acceptances both cover the sampling phase only.
		assert.Equal(t, cfg.SamplingSweeps*16, st.Attempted)
		assert.LessOrEqual(t, st.Accepted, st.Attempted)
	}
}

func TestHistogram(t *testing.T) {
	cfg := smallConfig()
	cfg.Temperatures = []float64{50}
	cfg.Workers = 3

	dists, err := Histogram(context.Background(), cfg, 8)
	require.NoError(t, err)
	require.Len(t, dists, 1)
	assert.Equal(t, 50.0, dists[0].Params.Temperature)
	require.Len(t, dists[0].Values, 8)

	sum := 0.0
	for _, v := range dists[0].Values {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
		sum += math.Abs(v)
	}
	assert.Less(t, sum/8, 0.2)

	cfg.Workers = 1
	again, err := Histogram(context.Background(), cfg, 8)
	require.NoError(t, err)
	assert.Equal(t, dists, again)

	_, err = Histogram(context.Background(), cfg, 0)
	assert.ErrorIs(t, err, ErrInvalidRuns)
}

func TestTrace(t *testing.T) {
	p := core.Params{Temperature: 2, Anisotropy: 1}
	frames, err := Trace(lattice.Torus(3, 5), p, 10, 4, pcore.NewRNG(3))
	require.NoError(t, err)
	require.Len(t, frames, 5)
	for i, f := range frames {
		assert.Equal(t, StageTrace, f.Stage)
		assert.Equal(t, 10+i, f.Sweep)
		assert.Equal(t, 2.0, f.Temperature)
		require.Len(t, f.Spins, 3)
		require.Len(t, f.Spins[0], 5)
	}

	again, err := Trace(lattice.Torus(3, 5), p, 10, 4, pcore.NewRNG(3))
	require.NoError(t, err)
	assert.Equal(t, frames, again)

	_, err = Trace(lattice.Ring(4), p, -1, 4, pcore.NewRNG(3))
	assert.ErrorIs(t, err, ErrInvalidTrace)
	_, err = Trace(lattice.Ring(4), core.Params{Temperature: 0, Anisotropy: 1}, 0, 1, pcore.NewRNG(3))
	assert.ErrorIs(t, err, core.ErrInvalidParams)
}

package metropolis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
	"ising-mc/internal/observables"
	pcore "ising-mc/pkg/core"
)

// scriptedSource replays fixed values and counts how often it is consulted.
type scriptedSource struct {
	ints       []int
	floats     []float64
	intCalls   int
	floatCalls int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.ints[s.intCalls%len(s.ints)] % n
	s.intCalls++
	return v
}

func (s *scriptedSource) Float64() float64 {
	v := s.floats[s.floatCalls%len(s.floats)]
	s.floatCalls++
	return v
}

func TestEnergyChangeMatchesEnergyDifference(t *testing.T) {
	shapes := []lattice.Shape{lattice.Ring(9), lattice.Torus(5, 7), lattice.Torus(2, 2)}
	params := []core.Params{
		{Temperature: 1, Anisotropy: 1, Field: 0},
		{Temperature: 1, Anisotropy: -1, Field: 0},
		{Temperature: 1, Anisotropy: 0.5, Field: 0.7},
		{Temperature: 1, Anisotropy: 1, Field: -1.3},
	}
	rng := pcore.NewRNG(5)
	for _, shape := range shapes {
		for _, p := range params {
			l, err := lattice.New(shape, rng)
			require.NoError(t, err)
			for i := 0; i < 50; i++ {
				site := rng.IntN(l.Size())
				before := observables.Energy(l, p)
				dE := EnergyChange(l, site, p)
				l.Flip(site)
				after := observables.Energy(l, p)
				require.InDelta(t, after-before, dE, 1e-9, "%s %s site %d", shape, p, site)
			}
		}
	}
}

func TestEnergyChangeTextbookForm(t *testing.T) {
	l, err := lattice.FromSpins(lattice.Ring(3), []int8{1, 1, 1})
	require.NoError(t, err)
	p := core.Params{Temperature: 1, Anisotropy: 1}
	assert.Equal(t, 4.0, EnergyChange(l, 1, p))

	p.Field = 0.5
	assert.Equal(t, 5.0, EnergyChange(l, 1, p))
}

func TestAcceptanceProbability(t *testing.T) {
	for _, temp := range []float64{0.01, 0.5, 2, 100} {
		assert.Equal(t, 1.0, AcceptanceProbability(-4, temp))
		assert.Equal(t, 1.0, AcceptanceProbability(-0.1, temp))
		assert.Equal(t, 1.0, AcceptanceProbability(0, temp))
	}
	for _, dE := range []float64{0.5, 2, 4, 8} {
		prev := 0.0
		for _, temp := range []float64{0.1, 0.5, 1, 2, 5, 100} {
			p := AcceptanceProbability(dE, temp)
			assert.Greater(t, p, prev, "colder must be stricter: dE=%v T=%v", dE, temp)
			assert.LessOrEqual(t, p, 1.0)
			prev = p
		}
	}
	assert.InDelta(t, math.Exp(-2), AcceptanceProbability(4, 2), 1e-15)
}

func TestNewRejectsInvalidParams(t *testing.T) {
	_, err := New(core.Params{Temperature: 0, Anisotropy: 1}, pcore.NewRNG(1))
	assert.ErrorIs(t, err, core.ErrInvalidParams)

	_, err = New(core.Params{Temperature: -1, Anisotropy: 1}, pcore.NewRNG(1))
	assert.ErrorIs(t, err, core.ErrInvalidParams)

	_, err = New(core.Params{Temperature: math.NaN(), Anisotropy: 1}, pcore.NewRNG(1))
	assert.ErrorIs(t, err, core.ErrInvalidParams)

	_, err = New(core.DefaultParams(), nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestProposeAndUpdateDownhillSkipsDraw(t *testing.T) {
	// Middle spin opposes both neighbours: flipping lowers the energy.
	l, err := lattice.FromSpins(lattice.Ring(3), []int8{1, -1, 1})
	require.NoError(t, err)
	src := &scriptedSource{ints: []int{0}, floats: []float64{0.999}}
	e, err := New(core.Params{Temperature: 1, Anisotropy: 1}, src)
	require.NoError(t, err)

	assert.True(t, e.ProposeAndUpdate(l, 1))
	assert.Equal(t, 0, src.floatCalls)
	assert.Equal(t, 1, l.Spin(1))
}

func TestProposeAndUpdateUphillUsesCriterion(t *testing.T) {
	p := core.Params{Temperature: 2, Anisotropy: 1}
	// dE = 4 for an aligned ring; acceptance exp(-2) ≈ 0.1353.
	accept := math.Exp(-2)

	l, err := lattice.FromSpins(lattice.Ring(3), []int8{1, 1, 1})
	require.NoError(t, err)
	src := &scriptedSource{ints: []int{0}, floats: []float64{accept + 1e-6}}
	e, err := New(p, src)
	require.NoError(t, err)
	assert.False(t, e.ProposeAndUpdate(l, 0))
	assert.Equal(t, 1, l.Spin(0))
	assert.Equal(t, 1, src.floatCalls)

	src.floats = []float64{accept - 1e-6}
	assert.True(t, e.ProposeAndUpdate(l, 0))
	assert.Equal(t, -1, l.Spin(0))
}

func TestSweepAttemptsSizeRandomSites(t *testing.T) {
	l, err := lattice.New(lattice.Torus(4, 5), pcore.NewRNG(1))
	require.NoError(t, err)
	src := &scriptedSource{ints: []int{3, 3, 3, 17}, floats: []float64{0.5}}
	e, err := New(core.Params{Temperature: 1, Anisotropy: 1}, src)
	require.NoError(t, err)

	e.Sweep(l)
	assert.Equal(t, 20, src.intCalls)

	e.Run(l, 3)
	assert.Equal(t, 80, src.intCalls)
}

func TestSpinInvariantHolds(t *testing.T) {
	rng := pcore.NewRNG(9)
	l, err := lattice.New(lattice.Torus(8, 8), rng)
	require.NoError(t, err)
	e, err := New(core.Params{Temperature: 2.3, Anisotropy: -1, Field: 0.4}, rng)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		e.Sweep(l)
		for _, s := range l.Spins() {
			require.True(t, s == 1 || s == -1)
		}
	}
}

func TestBoltzmannWeightsOnThreeSiteRing(t *testing.T) {
	// Ring of three: two aligned states at E=-3, six at E=+1.
	const temp = 2.0
	beta := 1 / temp
	wantAligned := 2 * math.Exp(3*beta) / (2*math.Exp(3*beta) + 6*math.Exp(-beta))

	rng := pcore.NewRNG(2024)
	l, err := lattice.New(lattice.Ring(3), rng)
	require.NoError(t, err)
	p := core.Params{Temperature: temp, Anisotropy: 1}
	e, err := New(p, rng)
	require.NoError(t, err)
	e.Run(l, 100)

	const samples = 20000
	aligned := 0
	for i := 0; i < samples; i++ {
		e.Sweep(l)
		if observables.Energy(l, p) < 0 {
			aligned++
		}
	}
	assert.InDelta(t, wantAligned, float64(aligned)/samples, 0.02)
}

func TestGroundStateAfterAnnealing(t *testing.T) {
	rng := pcore.NewRNG(42)
	l, err := lattice.New(lattice.Torus(4, 4), rng)
	require.NoError(t, err)

	warm, err := New(core.Params{Temperature: 1.5, Anisotropy: 1}, rng)
	require.NoError(t, err)
	warm.Run(l, 2000)

	cold := core.Params{Temperature: 0.01, Anisotropy: 1}
	quench, err := New(cold, rng)
	require.NoError(t, err)
	quench.Run(l, 500)

	perSite := observables.Energy(l, cold) / float64(l.Size())
	assert.InDelta(t, -2.0, perSite, 1e-9)
	assert.InDelta(t, 1.0, math.Abs(observables.Magnetization(l))/float64(l.Size()), 1e-9)
}

func TestHighTemperatureDisorders(t *testing.T) {
	rng := pcore.NewRNG(7)
	up := make([]int8, 64)
	for i := range up {
		up[i] = 1
	}
	l, err := lattice.FromSpins(lattice.Torus(8, 8), up)
	require.NoError(t, err)
	e, err := New(core.Params{Temperature: 100, Anisotropy: 1}, rng)
	require.NoError(t, err)
	e.Run(l, 200)

	sum := 0.0
	const samples = 2000
	for i := 0; i < samples; i++ {
		e.Sweep(l)
		sum += observables.Magnetization(l)
	}
	assert.InDelta(t, 0, sum/samples/float64(l.Size()), 0.05)
}

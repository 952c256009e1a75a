package chain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
)

func smallChain(t *testing.T) *Chain {
	t.Helper()
	c, err := New(Config{Rows: 8, Cols: 12, Params: core.DefaultParams(), SweepsPerStep: 2, Seed: 5})
	require.NoError(t, err)
	return c
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Rows: 1, Cols: 8, Params: core.DefaultParams()})
	assert.ErrorIs(t, err, lattice.ErrInvalidShape)
	_, err = New(Config{Rows: 8, Cols: 8, Params: core.Params{Temperature: -1, Anisotropy: 1}})
	assert.ErrorIs(t, err, core.ErrInvalidParams)

	c, err := New(Config{Rows: 4, Cols: 4, Params: core.DefaultParams()})
	require.NoError(t, err)
	assert.Equal(t, 1, c.cfg.SweepsPerStep)
}

func TestSizeAndCells(t *testing.T) {
	c := smallChain(t)
	assert.Equal(t, core.Size{W: 12, H: 8}, c.Size())
	assert.Equal(t, "ising", c.Name())

	cells := c.Cells()
	require.Len(t, cells, 96)
	for i, v := range cells {
		if c.Lattice().Spin(i) > 0 {
			assert.Equal(t, uint8(1), v)
		} else {
			assert.Equal(t, uint8(0), v)
		}
	}
}

func TestStepAdvancesSweeps(t *testing.T) {
	c := smallChain(t)
	c.Step()
	c.Step()
	r := c.Readout()
	assert.Equal(t, 4, r.Sweeps)
	assert.Greater(t, r.Acceptance, 0.0)
	assert.LessOrEqual(t, r.Acceptance, 1.0)
	assert.LessOrEqual(t, math.Abs(r.Magnetization), 1.0)
	assert.GreaterOrEqual(t, r.Energy, -2.0)
}

func TestResetIsDeterministic(t *testing.T) {
	a := smallChain(t)
	b := smallChain(t)
	for i := 0; i < 5; i++ {
		a.Step()
		b.Step()
	}
	assert.Equal(t, a.Lattice().Spins(), b.Lattice().Spins())

	a.Reset(99)
	b.Reset(99)
	assert.Equal(t, 0, a.Sweeps())
	assert.Equal(t, a.Lattice().Spins(), b.Lattice().Spins())
}

func TestSetFloatParameter(t *testing.T) {
	c := smallChain(t)
	before := c.Lattice().Spins()

	assert.True(t, c.SetFloatParameter(core.KeyTemperature, 3.5))
	assert.True(t, c.SetFloatParameter(core.KeyField, 0.25))
	assert.True(t, c.SetFloatParameter(core.KeyAnisotropy, -1))
	assert.Equal(t, core.Params{Temperature: 3.5, Field: 0.25, Anisotropy: -1}, c.Params())
	assert.Equal(t, before, c.Lattice().Spins())

	assert.False(t, c.SetFloatParameter(core.KeyTemperature, 0))
	assert.False(t, c.SetFloatParameter("colour", 1))
	assert.Equal(t, 3.5, c.Params().Temperature)
}

func TestSetIntParameter(t *testing.T) {
	c := smallChain(t)
	assert.True(t, c.SetIntParameter(KeySweepsPerStep, 5))
	assert.False(t, c.SetIntParameter(KeySweepsPerStep, 0))
	assert.False(t, c.SetIntParameter("other", 3))
	c.Step()
	assert.Equal(t, 5, c.Sweeps())
}

func TestParametersSnapshot(t *testing.T) {
	c := smallChain(t)
	c.Step()
	snap := c.Parameters()

	p, ok := snap.Lookup(core.KeyTemperature)
	require.True(t, ok)
	assert.Equal(t, "2", p.Value)
	p, ok = snap.Lookup("sweeps")
	require.True(t, ok)
	assert.Equal(t, "2", p.Value)
	_, ok = snap.Lookup("energy")
	assert.True(t, ok)

	keys := map[string]bool{}
	for _, ctrl := range c.ParameterControls() {
		keys[ctrl.Key] = true
		_, ok := snap.Lookup(ctrl.Key)
		assert.True(t, ok, ctrl.Key)
	}
	assert.Len(t, keys, 4)
}

func TestLowTemperatureOrders(t *testing.T) {
	c, err := New(Config{Rows: 6, Cols: 6, Params: core.Params{Temperature: 0.5, Anisotropy: 1, Field: 0.5}, SweepsPerStep: 50, Seed: 1})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		c.Step()
	}
	assert.InDelta(t, 1.0, c.Readout().Magnetization, 1e-9)
}

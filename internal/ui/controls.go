package ui

import (
	"math"
	"strconv"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
)

const defaultFloatStep = 0.05

// stepValue moves current by one step of ctrl in direction dir, clamped to
// the control bounds. ok is false when the value would not change.
func stepValue(ctrl core.ParameterControl, current float64, dir int) (next float64, ok bool) {
	if dir == 0 {
		return current, false
	}
	step := ctrl.Step
	switch ctrl.Type {
	case core.ParamTypeInt:
		step = math.Round(step)
		if step <= 0 {
			step = 1
		}
	default:
		if step <= 0 {
			step = defaultFloatStep
		}
	}
	next = current + float64(dir)*step
	if ctrl.HasMin && next < ctrl.Min {
		next = ctrl.Min
	}
	if ctrl.HasMax && next > ctrl.Max {
		next = ctrl.Max
	}
	// Snap away float drift so repeated steps land on round values.
	next = math.Round(next/step*1e6) / 1e6 * step
	if math.Abs(next-current) < 1e-9 {
		return current, false
	}
	return next, true
}

// formatValue renders v with a precision suited to the control's step.
func formatValue(ctrl core.ParameterControl, v float64) string {
	if ctrl.Type == core.ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	step := ctrl.Step
	if step <= 0 {
		step = defaultFloatStep
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// wallWeights writes, per site, the fraction of bonds the coupling eps
// disfavours. Ferromagnetic walls separate opposite spins, antiferromagnetic
// walls separate equal ones.
func wallWeights(l *lattice.Lattice, eps float64, dst []float32) []float32 {
	n := l.Size()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	deg := float32(l.Degree())
	for site := 0; site < n; site++ {
		s := l.Spin(site)
		bad := 0
		for _, nb := range l.Neighbors(site) {
			if float64(s*l.Spin(int(nb)))*eps < 0 {
				bad++
			}
		}
		dst[site] = float32(bad) / deg
	}
	return dst
}

// trend keeps the most recent samples of a scalar in a ring buffer.
type trend struct {
	values []float64
	next   int
	full   bool
}

func newTrend(capacity int) *trend {
	if capacity < 1 {
		capacity = 1
	}
	return &trend{values: make([]float64, capacity)}
}

func (t *trend) push(v float64) {
	t.values[t.next] = v
	t.next++
	if t.next == len(t.values) {
		t.next = 0
		t.full = true
	}
}

// ordered returns the samples oldest first.
func (t *trend) ordered() []float64 {
	if !t.full {
		return append([]float64(nil), t.values[:t.next]...)
	}
	out := make([]float64, 0, len(t.values))
	out = append(out, t.values[t.next:]...)
	return append(out, t.values[:t.next]...)
}

func (t *trend) reset() {
	t.next = 0
	t.full = false
}

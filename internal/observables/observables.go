// Package observables computes instantaneous thermodynamic quantities from a
// lattice configuration. Every function is pure.
package observables

import (
	"math"

	"ising-mc/internal/core"
	"ising-mc/internal/lattice"
)

// Energy returns Σ -ε·s·Σneighbours/2 - B·Σs. The halving undoes the double
// counting of every bond.
func Energy(l *lattice.Lattice, p core.Params) float64 {
	pairs, spins := 0, 0
	for site := 0; site < l.Size(); site++ {
		s := l.Spin(site)
		pairs += s * l.NeighborSum(site)
		spins += s
	}
	return -p.Anisotropy*float64(pairs)/2 - p.Field*float64(spins)
}

// Magnetization returns the sum of all spins.
func Magnetization(l *lattice.Lattice) float64 {
	m := 0
	for site := 0; site < l.Size(); site++ {
		m += l.Spin(site)
	}
	return float64(m)
}

// AlignmentCount counts ordered (site, neighbour) pairs with equal spins and
// divides by the degree, giving a value in [0, Size()].
func AlignmentCount(l *lattice.Lattice) float64 {
	aligned := 0
	for site := 0; site < l.Size(); site++ {
		s := l.Spin(site)
		for _, n := range l.Neighbors(site) {
			if l.Spin(int(n)) == s {
				aligned++
			}
		}
	}
	return float64(aligned) / float64(l.Degree())
}

// Entropy evaluates the alignment estimator
// n·ln n - a·ln a - (n-a)·ln(n-a) with x·ln x taken as 0 at x = 0.
func Entropy(aligned float64, n int) float64 {
	total := float64(n)
	return xlogx(total) - xlogx(aligned) - xlogx(total-aligned)
}

func xlogx(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x * math.Log(x)
}

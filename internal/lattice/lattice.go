// Package lattice holds the spin configuration of an Ising system together
// with its periodic neighbour topology.
package lattice

import (
	"fmt"
	"slices"

	"ising-mc/pkg/core"
)

// Lattice stores spins in row-major order. Flip is the only way to change a
// spin once the lattice exists.
type Lattice struct {
	shape     Shape
	spins     []int8
	degree    int
	neighbors []int32
}

// New allocates a lattice for shape and draws every spin independently as +1
// or -1 with probability one half.
func New(shape Shape, rng core.RandomSource) (*Lattice, error) {
	l, err := allocate(shape)
	if err != nil {
		return nil, err
	}
	for i := range l.spins {
		if rng.IntN(2) == 1 {
			l.spins[i] = 1
		} else {
			l.spins[i] = -1
		}
	}
	return l, nil
}

// FromSpins builds a lattice holding a copy of the provided configuration.
func FromSpins(shape Shape, spins []int8) (*Lattice, error) {
	l, err := allocate(shape)
	if err != nil {
		return nil, err
	}
	if len(spins) != len(l.spins) {
		return nil, fmt.Errorf("%w: %s holds %d sites, got %d spins", ErrInvalidShape, shape, len(l.spins), len(spins))
	}
	for i, s := range spins {
		if s != 1 && s != -1 {
			return nil, fmt.Errorf("%w: site %d has value %d", ErrInvalidSpin, i, s)
		}
	}
	copy(l.spins, spins)
	return l, nil
}

func allocate(shape Shape) (*Lattice, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	shape.Extents = slices.Clone(shape.Extents)
	degree, table := topologies[shape.Topology].build(shape.Extents)
	return &Lattice{
		shape:     shape,
		spins:     make([]int8, shape.Size()),
		degree:    degree,
		neighbors: table,
	}, nil
}

// Shape returns the shape the lattice was built from.
func (l *Lattice) Shape() Shape {
	s := l.shape
	s.Extents = slices.Clone(s.Extents)
	return s
}

// Size returns the total number of sites.
func (l *Lattice) Size() int { return len(l.spins) }

// Degree returns the number of neighbour slots per site.
func (l *Lattice) Degree() int { return l.degree }

// Spin returns the value at site.
func (l *Lattice) Spin(site int) int {
	l.check(site)
	return int(l.spins[site])
}

// NeighborSum returns the sum of the spins adjacent to site.
func (l *Lattice) NeighborSum(site int) int {
	l.check(site)
	sum := 0
	for _, n := range l.neighbors[site*l.degree : (site+1)*l.degree] {
		sum += int(l.spins[n])
	}
	return sum
}

// Neighbors returns the neighbour indices of site. The slice is shared and
// must not be modified.
func (l *Lattice) Neighbors(site int) []int32 {
	l.check(site)
	return l.neighbors[site*l.degree : (site+1)*l.degree]
}

// Flip negates the spin at site.
func (l *Lattice) Flip(site int) {
	l.check(site)
	l.spins[site] = -l.spins[site]
}

// Spins returns a copy of the configuration in row-major order.
func (l *Lattice) Spins() []int8 { return slices.Clone(l.spins) }

// Grid returns the configuration as rows of spins. A ring is a single row.
func (l *Lattice) Grid() [][]int8 {
	rows, cols := l.shape.Rows(), l.shape.Cols()
	grid := make([][]int8, rows)
	for r := range grid {
		grid[r] = slices.Clone(l.spins[r*cols : (r+1)*cols])
	}
	return grid
}

func (l *Lattice) check(site int) {
	if site < 0 || site >= len(l.spins) {
		panic(fmt.Sprintf("lattice: site %d out of range [0, %d)", site, len(l.spins)))
	}
}

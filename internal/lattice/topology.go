package lattice

import (
	"fmt"
	"sort"
)

// Shape names a topology and its extents. It is a plain value and never
// changes once a lattice is built from it.
type Shape struct {
	Topology string
	Extents  []int
}

const (
	// TopologyRing is a one-dimensional chain closed into a ring.
	TopologyRing = "ring"
	// TopologyTorus is a two-dimensional grid with both axes wrapped.
	TopologyTorus = "torus"
)

// Ring returns the shape of a periodic chain of n spins.
func Ring(n int) Shape { return Shape{Topology: TopologyRing, Extents: []int{n}} }

// Torus returns the shape of a periodic rows×cols grid.
func Torus(rows, cols int) Shape {
	return Shape{Topology: TopologyTorus, Extents: []int{rows, cols}}
}

// Size returns the number of sites described by the extents.
func (s Shape) Size() int {
	if len(s.Extents) == 0 {
		return 0
	}
	n := 1
	for _, e := range s.Extents {
		n *= e
	}
	return n
}

// Rows and Cols report the shape as a rectangular grid. A ring is one row.
func (s Shape) Rows() int {
	if len(s.Extents) < 2 {
		return 1
	}
	return s.Extents[0]
}

func (s Shape) Cols() int {
	if len(s.Extents) == 0 {
		return 0
	}
	return s.Extents[len(s.Extents)-1]
}

func (s Shape) String() string {
	switch len(s.Extents) {
	case 1:
		return fmt.Sprintf("%s(%d)", s.Topology, s.Extents[0])
	case 2:
		return fmt.Sprintf("%s(%dx%d)", s.Topology, s.Extents[0], s.Extents[1])
	default:
		return fmt.Sprintf("%s%v", s.Topology, s.Extents)
	}
}

// Validate reports whether the shape names a registered topology with
// acceptable extents.
func (s Shape) Validate() error {
	t, ok := topologies[s.Topology]
	if !ok {
		return fmt.Errorf("%w: unknown topology %q", ErrInvalidShape, s.Topology)
	}
	if len(s.Extents) != t.rank {
		return fmt.Errorf("%w: %s needs %d extents, got %d", ErrInvalidShape, s.Topology, t.rank, len(s.Extents))
	}
	for i, e := range s.Extents {
		if e < 2 {
			return fmt.Errorf("%w: extent %d of %s must be at least 2, got %d", ErrInvalidShape, i, s.Topology, e)
		}
	}
	return nil
}

// NeighborTable fills a flat table with degree entries per site. Entry
// site*degree+k is the k-th neighbour of site. Builders must produce a
// symmetric relation with no self-neighbours.
type NeighborTable func(extents []int) (degree int, table []int32)

type topology struct {
	rank  int
	build NeighborTable
}

var topologies = map[string]topology{}

// Register adds a topology under the provided name. Rank is the number of
// extents the topology expects.
func Register(name string, rank int, build NeighborTable) {
	if name == "" || rank <= 0 || build == nil {
		return
	}
	topologies[name] = topology{rank: rank, build: build}
}

// Rank returns the number of extents a registered topology expects.
func Rank(name string) (int, bool) {
	t, ok := topologies[name]
	return t.rank, ok
}

// Topologies lists the registered topology names in sorted order.
func Topologies() []string {
	names := make([]string, 0, len(topologies))
	for name := range topologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ringNeighbors(extents []int) (int, []int32) {
	n := extents[0]
	table := make([]int32, 2*n)
	for i := 0; i < n; i++ {
		table[2*i] = int32((i + 1) % n)
		table[2*i+1] = int32((i - 1 + n) % n)
	}
	return 2, table
}

func torusNeighbors(extents []int) (int, []int32) {
	rows, cols := extents[0], extents[1]
	table := make([]int32, 4*rows*cols)
	for r := 0; r < rows; r++ {
		up := (r - 1 + rows) % rows
		down := (r + 1) % rows
		for c := 0; c < cols; c++ {
			left := (c - 1 + cols) % cols
			right := (c + 1) % cols
			base := 4 * (r*cols + c)
			table[base+0] = int32(down*cols + c)
			table[base+1] = int32(up*cols + c)
			table[base+2] = int32(r*cols + right)
			table[base+3] = int32(r*cols + left)
		}
	}
	return 4, table
}

func init() {
	Register(TopologyRing, 1, ringNeighbors)
	Register(TopologyTorus, 2, torusNeighbors)
}

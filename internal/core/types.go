package core

// Size describes the dimensions of a rendered grid.
type Size struct {
	W int
	H int
}

// Sim is the contract the viewer drives: one Step per tick, Cells for the
// painter.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

package lattice

import "errors"

var (
	// ErrInvalidShape indicates an unknown topology or unusable extents.
	ErrInvalidShape = errors.New("lattice: invalid shape")
	// ErrInvalidSpin indicates a spin value other than -1 or +1.
	ErrInvalidSpin = errors.New("lattice: spins must be -1 or +1")
)

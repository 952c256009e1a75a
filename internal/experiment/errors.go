package experiment

import (
	"errors"
	"fmt"

	"ising-mc/internal/core"
)

var (
	// ErrNonFinite reports a reduction that produced NaN or Inf.
	ErrNonFinite = errors.New("experiment: non-finite result")
	// ErrPanic reports a panic recovered while simulating a point.
	ErrPanic = errors.New("experiment: simulation panicked")
)

// PointError names the parameter combination whose simulation failed.
type PointError struct {
	Index  int
	Params core.Params
	Err    error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("experiment: point %d (%s): %v", e.Index, e.Params, e.Err)
}

func (e *PointError) Unwrap() error { return e.Err }

package core

import "math/rand/v2"

// RandomSource supplies the two kinds of randomness the sampler consumes:
// uniform site indices and uniform reals for the acceptance test.
type RandomSource interface {
	// IntN returns a uniform integer in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a uniform real in [0, 1).
	Float64() float64
}

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

var _ RandomSource = (*RNG)(nil)

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return NewStream(seed, 0)
}

// NewStream creates a deterministic RNG on an independent PCG stream. Two
// streams built from the same seed but different stream ids never share state.
func NewStream(seed int64, stream uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), stream))}
}

// IntN returns a random int in [0, n).
func (r *RNG) IntN(n int) int {
	return r.r.IntN(n)
}

// Float64 returns a random float64 in [0, 1).
func (r *RNG) Float64() float64 {
	return r.r.Float64()
}

// SourceFactory hands out the random source for the parameter point with the
// given index.
type SourceFactory func(point int) RandomSource

// Streams returns a SourceFactory giving every point its own PCG stream
// derived from seed.
func Streams(seed int64) SourceFactory {
	return func(point int) RandomSource {
		return NewStream(seed, uint64(point)+1)
	}
}

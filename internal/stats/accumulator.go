// Package stats keeps running moments of scalar observables along a sampling
// trajectory.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Accumulator tracks count, sum and sum of squares. The zero value is ready
// to use. Mean and variance are meaningful only after at least one Record.
type Accumulator struct {
	n     int
	sum   float64
	sumSq float64
}

// Record adds one sample.
func (a *Accumulator) Record(v float64) {
	a.n++
	a.sum += v
	a.sumSq += v * v
}

// Count returns the number of recorded samples.
func (a *Accumulator) Count() int { return a.n }

// Mean returns the sample mean, or 0 before any sample.
func (a *Accumulator) Mean() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// Variance returns E[x²] - E[x]², floored at 0 to absorb cancellation.
func (a *Accumulator) Variance() float64 {
	if a.n == 0 {
		return 0
	}
	mean := a.Mean()
	v := a.sumSq/float64(a.n) - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

// StdDev returns the square root of Variance.
func (a *Accumulator) StdDev() float64 { return math.Sqrt(a.Variance()) }

// Reset discards all samples.
func (a *Accumulator) Reset() { *a = Accumulator{} }

// Blocks splits a trajectory of known length into contiguous blocks, each
// with its own Accumulator. It backs batch-means error estimates.
type Blocks struct {
	size   int
	blocks []Accumulator
	seen   int
}

// NewBlocks prepares count blocks over a trajectory of total samples. When
// total does not divide evenly the remainder joins the last block. count is
// clamped to [1, total].
func NewBlocks(count, total int) *Blocks {
	if total < 1 {
		total = 1
	}
	if count < 1 {
		count = 1
	}
	if count > total {
		count = total
	}
	return &Blocks{size: total / count, blocks: make([]Accumulator, count)}
}

// Record adds a sample to the current block.
func (b *Blocks) Record(v float64) {
	i := b.seen / b.size
	if i >= len(b.blocks) {
		i = len(b.blocks) - 1
	}
	b.blocks[i].Record(v)
	b.seen++
}

// Len returns the number of blocks.
func (b *Blocks) Len() int { return len(b.blocks) }

// Estimates applies f to every non-empty block, in trajectory order.
func (b *Blocks) Estimates(f func(*Accumulator) float64) []float64 {
	out := make([]float64, 0, len(b.blocks))
	for i := range b.blocks {
		if b.blocks[i].Count() == 0 {
			continue
		}
		out = append(out, f(&b.blocks[i]))
	}
	return out
}

// Spread returns the mean and the sample standard deviation of the per-block
// estimates of f. The deviation is 0 with fewer than two non-empty blocks.
func (b *Blocks) Spread(f func(*Accumulator) float64) (mean, std float64) {
	est := b.Estimates(f)
	switch len(est) {
	case 0:
		return 0, 0
	case 1:
		return est[0], 0
	}
	return stat.MeanStdDev(est, nil)
}

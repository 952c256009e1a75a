package core

import "time"

// maxCatchUp bounds how many overdue steps Due reports after a stall.
const maxCatchUp = 8

// FixedStep paces chain updates at a steady rate independent of the frame
// rate.
type FixedStep struct {
	step    time.Duration
	pending time.Duration
	last    time.Time
	now     func() time.Time
}

// NewFixedStep constructs a FixedStep targeting tps steps per second. The
// first call to Due always yields a step.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{now: time.Now}
	fs.SetTPS(tps)
	fs.pending = fs.step
	return fs
}

// SetTPS changes the rate; non-positive values select 60.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// TPS returns the current rate.
func (f *FixedStep) TPS() int { return int(time.Second / f.step) }

func (f *FixedStep) advance() {
	now := f.now()
	if f.last.IsZero() {
		f.last = now
	}
	f.pending += now.Sub(f.last)
	f.last = now
	if limit := maxCatchUp * f.step; f.pending > limit {
		f.pending = limit
	}
}

// Due consumes and returns the number of steps owed since the last call.
func (f *FixedStep) Due() int {
	f.advance()
	n := int(f.pending / f.step)
	f.pending -= time.Duration(n) * f.step
	return n
}


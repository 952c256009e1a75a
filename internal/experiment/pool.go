package experiment

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

func workerCount(requested, jobs int) int {
	n := requested
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// forEach runs fn for job indices [0, jobs) on at most workers goroutines.
// Once ctx is cancelled or a job fails no further fn call starts, including
// jobs already waiting for a worker slot; running jobs finish. The first job
// error wins over cancellation.
func forEach(ctx context.Context, jobs, workers int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(workers, jobs))
	var skipped atomic.Bool
	for i := 0; i < jobs; i++ {
		if gctx.Err() != nil {
			skipped.Store(true)
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				skipped.Store(true)
				return nil
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if skipped.Load() {
		return ctx.Err()
	}
	return nil
}

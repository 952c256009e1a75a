package experiment

import (
	"go.uber.org/zap"

	pcore "ising-mc/pkg/core"
)

// Observer is notified after each completed point. Implementations must be
// safe for concurrent use; points finish on worker goroutines.
type Observer interface {
	PointFinished(pt Point, rec Record, st PointStats)
}

type options struct {
	logger   *zap.Logger
	observer Observer
	sources  pcore.SourceFactory
}

// Option customises Run, Histogram and friends.
type Option func(*options)

// WithLogger routes driver logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers obs for per-point notifications.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithSources replaces the per-point random source factory. By default every
// point draws from its own PCG stream derived from Config.Seed.
func WithSources(f pcore.SourceFactory) Option {
	return func(o *options) {
		if f != nil {
			o.sources = f
		}
	}
}

func buildOptions(seed int64, opts []Option) options {
	o := options{logger: zap.NewNop(), sources: pcore.Streams(seed)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

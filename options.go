package hako

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edwinsyarief/hako/config"
	"github.com/edwinsyarief/hako/internal/metrics"
)

type worldOptions struct {
	pageSize        int
	workers         int
	initialCapacity int
	logger          zerolog.Logger
	metrics         metrics.Client
}

func defaultOptions() worldOptions {
	return worldOptions{
		pageSize:        DefaultPageSize,
		workers:         runtime.GOMAXPROCS(0),
		initialCapacity: 1024,
		logger:          log.Logger.With().Str("module", "hako").Logger(),
		metrics:         metrics.NoOp(),
	}
}

// Option configures a World.
type Option func(*worldOptions)

// WithPageSize sets the number of rows per storage page. Values below 1 are
// ignored.
func WithPageSize(rows int) Option {
	return func(o *worldOptions) {
		if rows > 0 {
			o.pageSize = rows
		}
	}
}

// WithWorkers sets the number of command buffers, one per worker goroutine.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *worldOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithInitialCapacity reserves room for n entity records up front.
func WithInitialCapacity(n int) Option {
	return func(o *worldOptions) {
		if n >= 0 {
			o.initialCapacity = n
		}
	}
}

// WithLogger replaces the World's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *worldOptions) { o.logger = l }
}

// WithMetrics sends per-pass statistics to a statsd client.
func WithMetrics(c metrics.Client) Option {
	return func(o *worldOptions) {
		if c != nil {
			o.metrics = c
		}
	}
}

// WithConfig applies the non-zero settings of c.
func WithConfig(c config.World) Option {
	return func(o *worldOptions) {
		WithPageSize(c.PageSize)(o)
		WithWorkers(c.Workers)(o)
		if c.InitialCapacity > 0 {
			o.initialCapacity = c.InitialCapacity
		}
	}
}

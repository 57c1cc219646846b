package memory

import (
	"log/slog"
	"time"

	"mercator-hq/relay/pkg/telemetry/metrics"
)

// Option configures a store.
type Option func(*options)

type options struct {
	namespace namespace
	now       func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Collector
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithNamespace prefixes every key with "<agent>:".
func WithNamespace(agent string) Option {
	return func(o *options) { o.namespace = namespace(agent) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records every operation in collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

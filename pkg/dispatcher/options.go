package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry sets the adapter registry (default: providerfactory.NewRegistry()).
func WithRegistry(registry *providerfactory.Registry) Option {
	return func(d *Dispatcher) { d.registry = registry }
}

// WithHTTPClient sets the transport used for every vendor exchange.
func WithHTTPClient(client *providers.HTTPClient) Option {
	return func(d *Dispatcher) { d.client = client }
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics records calls, attempts and health in collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(d *Dispatcher) { d.metrics = collector }
}

// WithTracer records a span per call and per attempt.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = tracer }
}

// WithSleeper replaces the backoff sleep. Tests use it to observe the
// schedule without waiting.
func WithSleeper(sleep Sleeper) Option {
	return func(d *Dispatcher) { d.sleep = sleep }
}

// CallOption configures a single GetCompletion or GetChatCompletion call.
type CallOption func(*callOptions)

type callOptions struct {
	provider string
	model    string
	system   string
	params   providers.Params

	retries *int

	timeout     time.Duration
	timeoutPair *providers.Timeouts
}

// WithProvider selects the provider; the default provider is used otherwise.
func WithProvider(name string) CallOption {
	return func(o *callOptions) { o.provider = name }
}

// WithModel selects the model; the provider's default model is used otherwise.
func WithModel(model string) CallOption {
	return func(o *callOptions) { o.model = model }
}

// WithSystemPrompt prepends a system message. Only GetCompletion uses it.
func WithSystemPrompt(prompt string) CallOption {
	return func(o *callOptions) { o.system = prompt }
}

// WithParams merges params over the provider defaults. Later options win.
func WithParams(params providers.Params) CallOption {
	return func(o *callOptions) {
		if o.params == nil {
			o.params = make(providers.Params, len(params))
		}
		for k, v := range params {
			o.params[k] = v
		}
	}
}

// WithParam sets a single parameter.
func WithParam(key string, value any) CallOption {
	return func(o *callOptions) {
		if o.params == nil {
			o.params = make(providers.Params)
		}
		o.params[key] = value
	}
}

// WithRetries sets the attempt budget. Values below 1 are raised to 1.
func WithRetries(n int) CallOption {
	return func(o *callOptions) { o.retries = &n }
}

// WithTimeout sets the read timeout; the provider's connect timeout is
// paired with it.
func WithTimeout(read time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = read
		o.timeoutPair = nil
	}
}

// WithTimeoutPair sets connect and read timeouts verbatim.
func WithTimeoutPair(connect, read time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeoutPair = &providers.Timeouts{Connect: connect, Read: read}
		o.timeout = 0
	}
}

package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// state is a step of the per-call state machine:
//
//	resolving -> building -> sending -> success
//	                            |  ^
//	                            v  |
//	                          backoff
//	any step -> fatal
type state int

const (
	stateResolving state = iota
	stateBuilding
	stateSending
	stateBackoff
	stateSuccess
	stateFatal
)

func (s state) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateBuilding:
		return "building"
	case stateSending:
		return "sending"
	case stateBackoff:
		return "backoff"
	case stateSuccess:
		return "success"
	case stateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Backoff schedule: 1s, 2s, 4s, ... capped at 30s, no jitter.
const (
	backoffInitial    = time.Second
	backoffMultiplier = 2
	backoffMax        = 30 * time.Second
)

func newBackoff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     backoffInitial,
		Multiplier:          backoffMultiplier,
		MaxInterval:         backoffMax,
		RandomizationFactor: 0,
	}
}

// call is the state of one GetChatCompletion. It is never shared.
type call struct {
	id       string
	messages []providers.Message
	opts     callOptions

	provider string
	adapter  providers.Adapter
	config   providers.ProviderConfig
	model    string
	params   providers.Params
	retries  int
	timeouts providers.Timeouts

	attempt int
	backoff *backoff.ExponentialBackOff
	resp    *providers.ChatResponse
	err     error
}

func newCall(messages []providers.Message, o callOptions) *call {
	return &call{
		id:       uuid.NewString(),
		messages: messages,
		opts:     o,
		backoff:  newBackoff(),
	}
}

// run drives c through the state machine and returns its outcome.
func (d *Dispatcher) run(ctx context.Context, c *call) (*providers.ChatResponse, error) {
	start := time.Now()
	ctx = logging.WithRequestID(ctx, c.id)
	d.stats.IncrementTotal()

	ctx, span := d.tracer.Start(ctx, tracing.SpanChat, trace.WithAttributes(
		attribute.String(tracing.AttrRequestID, c.id),
	))
	defer span.End()

	st := stateResolving
	for {
		switch st {
		case stateResolving:
			if c.err = d.resolve(c); c.err != nil {
				st = stateFatal
				continue
			}
			st = stateBuilding

		case stateBuilding:
			if c.err = d.build(c); c.err != nil {
				st = stateFatal
				continue
			}
			ctx = logging.WithModel(logging.WithProvider(ctx, c.provider), c.model)
			span.SetAttributes(
				attribute.String(tracing.AttrProvider, c.provider),
				attribute.String(tracing.AttrModel, c.model),
				attribute.Int(tracing.AttrMaxRetries, c.retries),
			)
			d.stats.IncrementProvider(c.provider)
			st = stateSending

		case stateSending:
			if err := ctx.Err(); err != nil {
				c.err = err
				st = stateFatal
				continue
			}

			c.attempt++
			resp, err := d.attempt(ctx, c)
			if err == nil {
				c.resp = resp
				st = stateSuccess
				continue
			}

			c.err = err
			switch {
			case !providers.Retryable(err):
				st = stateFatal
			case c.attempt >= c.retries:
				d.logger.ErrorContext(ctx, "retry budget exhausted",
					"attempts", c.attempt,
					"kind", providers.KindOf(err).String(),
					"error", err,
				)
				c.err = &providers.RetryExhaustedError{Provider: c.provider, Attempts: c.attempt, Err: err}
				st = stateFatal
			default:
				st = stateBackoff
			}

		case stateBackoff:
			delay := c.backoff.NextBackOff()
			kind := providers.KindOf(c.err).String()

			d.logger.WarnContext(ctx, "attempt failed, retrying",
				"attempt", c.attempt,
				"max_attempts", c.retries,
				"kind", kind,
				"backoff", delay,
				"error", c.err,
			)
			d.metrics.RecordRetry(c.provider, kind)
			d.stats.IncrementRetries()
			tracing.AddRetryEvent(span, c.attempt, kind, delay.Milliseconds())

			if err := d.sleep(ctx, delay); err != nil {
				c.err = err
				st = stateFatal
				continue
			}
			st = stateSending

		case stateSuccess:
			c.resp.Attempts = c.attempt
			usage := c.resp.Usage

			d.logger.InfoContext(ctx, "completion succeeded",
				"attempts", c.attempt,
				"finish_reason", c.resp.Choice.FinishReason,
				"total_tokens", usage.TotalTokens,
				"duration", time.Since(start),
			)
			d.metrics.RecordCall(c.provider, c.model, metrics.OutcomeSuccess, c.attempt, time.Since(start))
			d.metrics.RecordTokens(c.provider, c.model, usage.PromptTokens, usage.CompletionTokens)
			tracing.SetTokenAttributes(span, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
			span.SetAttributes(attribute.Int(tracing.AttrAttempts, c.attempt))
			tracing.SetStatus(span, nil)
			return c.resp, nil

		case stateFatal:
			kind := providers.KindOf(c.err).String()
			outcome := metrics.OutcomeError
			var exhausted *providers.RetryExhaustedError
			if errors.As(c.err, &exhausted) {
				outcome = metrics.OutcomeExhausted
			}

			d.logger.ErrorContext(ctx, "completion failed",
				"provider", c.provider,
				"attempts", c.attempt,
				"kind", kind,
				"error", c.err,
			)
			d.stats.IncrementErrors()
			d.metrics.RecordCall(c.provider, c.model, outcome, c.attempt, time.Since(start))
			span.SetAttributes(attribute.Int(tracing.AttrAttempts, c.attempt))
			tracing.SetErrorAttributes(span, c.err, kind)
			return nil, c.err
		}
	}
}

// attempt performs one vendor exchange inside its own span.
func (d *Dispatcher) attempt(ctx context.Context, c *call) (*providers.ChatResponse, error) {
	ctx, span := d.tracer.Start(ctx, tracing.SpanAttempt, trace.WithAttributes(
		attribute.Int(tracing.AttrAttempt, c.attempt),
	))
	defer span.End()

	d.logger.DebugContext(ctx, "sending attempt",
		"attempt", c.attempt,
		"max_attempts", c.retries,
		"connect_timeout", c.timeouts.Connect,
		"read_timeout", c.timeouts.Read,
	)

	start := time.Now()
	resp, err := d.client.SendChat(ctx, c.adapter, c.messages, c.model, c.params, c.timeouts)
	d.metrics.RecordAttempt(c.provider, c.model, time.Since(start))
	d.stats.IncrementAttempts()

	if err != nil {
		kind := providers.KindOf(err).String()
		d.metrics.RecordProviderError(c.provider, kind)
		tracing.SetErrorAttributes(span, err, kind)
		return nil, err
	}

	tracing.SetStatus(span, nil)
	return resp, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

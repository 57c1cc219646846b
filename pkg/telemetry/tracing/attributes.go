package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanChat    = "relay.chat"
	SpanAttempt = "relay.attempt"
	SpanModels  = "relay.models"
	SpanHealth  = "relay.health"
)

// Attribute keys use the "relay.*" namespace.
const (
	AttrProvider  = "relay.provider"
	AttrModel     = "relay.model"
	AttrRequestID = "relay.request_id"

	AttrAttempt    = "relay.attempt"
	AttrAttempts   = "relay.attempts"
	AttrMaxRetries = "relay.max_retries"

	AttrTokensPrompt     = "relay.tokens.prompt"
	AttrTokensCompletion = "relay.tokens.completion"
	AttrTokensTotal      = "relay.tokens.total"

	AttrErrorKind  = "relay.error.kind"
	AttrBackoff    = "relay.backoff_ms"
)

// SetTokenAttributes sets token counts on a span. Unknown (negative)
// counts are left off.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens, totalTokens int) {
	var attrs []attribute.KeyValue
	if promptTokens >= 0 {
		attrs = append(attrs, attribute.Int(AttrTokensPrompt, promptTokens))
	}
	if completionTokens >= 0 {
		attrs = append(attrs, attribute.Int(AttrTokensCompletion, completionTokens))
	}
	if totalTokens >= 0 {
		attrs = append(attrs, attribute.Int(AttrTokensTotal, totalTokens))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

// SetErrorAttributes records err with its kind and marks the span failed.
func SetErrorAttributes(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorKind, kind))
	SetError(span, err)
	SetStatus(span, err)
}

// AddRetryEvent records a scheduled retry on the chat span.
func AddRetryEvent(span trace.Span, attempt int, kind string, backoffMs int64) {
	span.AddEvent("retry", trace.WithAttributes(
		attribute.Int(AttrAttempt, attempt),
		attribute.String(AttrErrorKind, kind),
		attribute.Int64(AttrBackoff, backoffMs),
	))
}

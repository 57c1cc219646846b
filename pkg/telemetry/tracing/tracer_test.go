package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/relay/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(config.TracingConfig{Enabled: true, ServiceName: "relay-test", SampleRatio: 1},
		WithSyncExporter(exporter), WithServiceVersion("test"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected tracer to be disabled")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("expected no trace ID from a noop span")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "noop")
	span.End()
	if tracer.Enabled() {
		t.Error("expected nil tracer to be disabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTracer_ChatSpan(t *testing.T) {
	tracer, exporter := newTestTracer(t)

	ctx, span := tracer.Start(context.Background(), SpanChat, trace.WithAttributes(attribute.String(AttrProvider, "openai")))
	if TraceID(ctx) == "" {
		t.Error("expected a trace ID")
	}
	_, attempt := tracer.Start(ctx, SpanAttempt)
	attempt.End()
	AddRetryEvent(span, 1, "timeout", 1000)
	SetTokenAttributes(span, 10, -1, 30)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	chat := spans[1]
	if chat.Name != SpanChat {
		t.Fatalf("expected chat span last, got %q", chat.Name)
	}
	if spans[0].Parent.SpanID() != chat.SpanContext.SpanID() {
		t.Error("expected attempt span to be a child of the chat span")
	}

	attrs := attrMap(chat.Attributes)
	if attrs[AttrProvider].AsString() != "openai" {
		t.Errorf("expected provider attribute, got %v", attrs[AttrProvider])
	}
	if attrs[AttrTokensPrompt].AsInt64() != 10 {
		t.Errorf("expected prompt tokens 10, got %v", attrs[AttrTokensPrompt])
	}
	if _, ok := attrs[AttrTokensCompletion]; ok {
		t.Error("expected unknown completion tokens to be omitted")
	}
	if len(chat.Events) != 1 || chat.Events[0].Name != "retry" {
		t.Errorf("expected one retry event, got %+v", chat.Events)
	}
}

func TestSetErrorAttributes(t *testing.T) {
	tracer, exporter := newTestTracer(t)

	_, span := tracer.Start(context.Background(), SpanAttempt)
	SetErrorAttributes(span, errors.New("boom"), "connection")
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if attrMap(got.Attributes)[AttrErrorKind].AsString() != "connection" {
		t.Error("expected error kind attribute")
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio   float64
		sampled bool
	}{
		{1, true},
		{2, true},
		{0, false},
		{-1, false},
	}

	for _, tt := range tests {
		sampler := newSampler(tt.ratio)
		result := sampler.ShouldSample(sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       [16]byte{1},
			Name:          "x",
		})
		if got := result.Decision == sdktrace.RecordAndSample; got != tt.sampled {
			t.Errorf("ratio %v: expected sampled=%v, got %v", tt.ratio, tt.sampled, got)
		}
	}
}

func TestTransport_InjectsTraceParent(t *testing.T) {
	tracer, _ := newTestTracer(t)

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
	}))
	defer server.Close()

	ctx, span := tracer.Start(context.Background(), SpanAttempt)
	defer span.End()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := (&http.Client{Transport: Transport(nil)}).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if traceparent == "" {
		t.Fatal("expected traceparent header upstream")
	}
	if req.Header.Get("traceparent") != "" {
		t.Error("expected the caller's request to be left untouched")
	}
}

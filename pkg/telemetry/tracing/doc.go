// Package tracing provides OpenTelemetry tracing for relay.
//
// Each GetChatCompletion produces a relay.chat span with one relay.attempt
// child per vendor exchange; scheduled retries appear as "retry" events on
// the chat span. Spans are exported over OTLP/gRPC to the configured
// collector endpoint.
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	d, err := dispatcher.New(cfg, dispatcher.WithTracer(tracer))
//
// Sampling follows telemetry.tracing.sample_ratio and respects the parent
// span's decision. Transport wraps the vendor HTTP transport so that the
// W3C traceparent header is sent upstream.
package tracing

// Package telemetry groups the observability packages used by relay.
//
// # Components
//
//   - logging: slog setup with API key and bearer token redaction
//   - metrics: Prometheus collectors for calls, providers and memory
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: concurrent provider health checks
//
// # Usage
//
//	logger, err := logging.New(logging.Config{LoggingConfig: cfg.Telemetry.Logging})
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(cfg.Telemetry.Tracing)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	d, err := dispatcher.New(cfg,
//		dispatcher.WithLogger(logger),
//		dispatcher.WithMetrics(collector),
//		dispatcher.WithTracer(tracer),
//	)
//
// relay has no inbound network surface, so metrics are not served over
// HTTP. Collector.WriteTextfile writes them for the node exporter's
// textfile collector instead.
//
// # Redaction
//
// Log attribute values are scanned for credentials before they are
// written:
//
//   - Anthropic keys: sk-ant-abc123 → sk-ant-***
//   - OpenAI keys: sk-abcdefgh123 → sk-***
//   - Google keys: AIzaSy... → AIza***
//   - Bearer tokens and ?key= query credentials
//
// Attributes named like api_key, authorization or secret are masked
// whole. Custom patterns come from telemetry.logging.redact_patterns.
package telemetry

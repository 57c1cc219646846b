// Package metrics provides Prometheus metrics for relay.
//
// A Collector owns a registry and three metric groups:
//
//   - Call metrics: one observation per GetChatCompletion, with the
//     outcome (success, error, retry_exhausted), total duration including
//     backoff, attempt count and token usage.
//   - Provider metrics: per-attempt latency, errors by kind, retries by
//     the kind that caused them, health and model listing size.
//   - Memory metrics: store operations and pruned entries.
//
// Usage:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	d, err := dispatcher.New(cfg, dispatcher.WithMetrics(collector))
//	defer collector.WriteTextfile("/var/lib/node_exporter/relay.prom")
//
// Collector methods are no-ops on a nil or disabled collector. Model
// labels are capped by a CardinalityLimiter; models beyond the cap are
// recorded as "other".
package metrics

// Package dispatcher is the facade callers use to get chat completions
// from any configured vendor.
//
// A Dispatcher is built from an explicit *config.Config; there is no
// package-level instance, so independent dispatchers with different
// configurations can coexist in one process.
//
//	d, err := dispatcher.New(cfg,
//	    dispatcher.WithLogger(logger),
//	    dispatcher.WithMetrics(collector),
//	)
//	resp, err := d.GetChatCompletion(ctx, messages,
//	    dispatcher.WithProvider("anthropic"),
//	    dispatcher.WithModel("claude-3-5-sonnet-latest"),
//	    dispatcher.WithParam("temperature", 0.2),
//	)
//
// # Call lifecycle
//
// Every call walks resolving, building and sending, then either succeeds,
// backs off and sends again, or fails:
//
//   - Resolving picks the provider (call option, else default_provider).
//     Unknown names fall back to the default provider. A provider whose
//     adapter requires a credential but has no API key fails with
//     *providers.ConfigurationError before any request is made.
//   - Building merges parameters (call > provider default_params), takes
//     out the reserved keys retries, timeout and connect_timeout, and
//     shapes the (connect, read) timeout pair.
//   - Sending performs one exchange. Only *providers.TransportTimeoutError
//     and *providers.TransportConnectionError are retried, after a backoff
//     of min(2^i, 30) seconds. When the budget is spent the last error is
//     returned inside *providers.RetryExhaustedError.
//
// Cancelling the context aborts the in-flight request or the backoff
// sleep and is never retried.
//
// Model listing and health checks make a single attempt and degrade to an
// empty listing or false instead of returning errors.
package dispatcher

// Package providers implements the vendor-neutral layer of the LLM client.
//
// # Overview
//
// Callers speak one request/response contract: a list of Messages, a model
// name and free-form Params in; a ChatResponse out. Each vendor is served
// by an Adapter that translates that contract to and from the vendor's
// HTTP API. Adapters never perform I/O; HTTPClient drives one exchange at
// a time and the dispatcher package owns retries.
//
// # Architecture
//
//  1. Adapter - the per-vendor translation contract (headers, body, URLs, parsing)
//  2. BaseAdapter - shared configuration handling and error extraction
//  3. HTTPClient - a pooled, single-attempt transport with connect/read deadlines
//  4. Error taxonomy - typed errors tagged with a Kind for retry decisions
//
// # Canonical Response
//
// Every adapter produces the same shape:
//
//	{
//	  "choice": {"role": "assistant", "content": "...", "finish_reason": "stop"},
//	  "usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
//	  "model": "gpt-4o-mini"
//	}
//
// finish_reason is one of stop, length, content_filter, error or unknown.
// Token counts the vendor did not report are UsageUnknown (-1); the keys
// are always present.
//
// # Error Handling
//
//   - ConfigurationError: detected before any network traffic
//   - UnsupportedProviderError: unknown provider on an operation without fallback
//   - TransportTimeoutError: connect or read deadline expired (retryable)
//   - TransportConnectionError: refused, reset or unresolvable (retryable)
//   - VendorRequestError: non-2xx reply, never retried
//   - MalformedResponseError: a 2xx body that is not JSON
//   - RetryExhaustedError: the last retryable error plus the attempt count
//
// KindOf classifies any error chain in a fixed priority order and
// Retryable reports whether another attempt is worthwhile.
//
// # Thread Safety
//
// Adapters are immutable after construction. HTTPClient shares one
// connection pool and is safe for concurrent use.
package providers

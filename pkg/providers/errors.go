package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ConfigurationError reports a configuration problem detected before any
// network traffic: a missing credential, an unresolved placeholder, or a
// missing default provider.
type ConfigurationError struct {
	// Provider is the provider whose configuration is invalid (may be empty)
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("configuration error for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// UnsupportedProviderError is returned by operations that do not fall back
// to the default adapter when the provider is unknown.
type UnsupportedProviderError struct {
	// Provider is the requested provider name
	Provider string
}

// Error implements the error interface.
func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("provider %q is not supported", e.Provider)
}

// TransportTimeoutError represents a connect or read deadline expiring.
// It is retryable.
type TransportTimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Phase is "connect" or "read"
	Phase string

	// Timeout is the deadline that expired
	Timeout time.Duration

	// Cause is the underlying network error
	Cause error
}

// Error implements the error interface.
func (e *TransportTimeoutError) Error() string {
	return fmt.Sprintf("provider %q %s timeout after %s", e.Provider, e.Phase, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportTimeoutError) Unwrap() error {
	return e.Cause
}

// TransportConnectionError represents a refused, reset or unresolvable
// connection. It is retryable.
type TransportConnectionError struct {
	// Provider is the name of the provider that could not be reached
	Provider string

	// Cause is the underlying network error
	Cause error
}

// Error implements the error interface.
func (e *TransportConnectionError) Error() string {
	return fmt.Sprintf("provider %q connection failed: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportConnectionError) Unwrap() error {
	return e.Cause
}

// VendorRequestError represents a non-2xx HTTP response. It is never retried.
type VendorRequestError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the error message extracted from the response body
	Message string

	// RetryAfter is the Retry-After hint on 429 responses, if any
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *VendorRequestError) Error() string {
	return fmt.Sprintf("provider %q request failed (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// MalformedResponseError represents a 2xx body that is not valid JSON.
// Well-formed responses with missing fields are normalized instead.
type MalformedResponseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("provider %q returned a malformed response: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// RetryExhaustedError wraps the last retryable error once the attempt
// budget is spent.
type RetryExhaustedError struct {
	// Provider is the provider that was called
	Provider string

	// Attempts is the number of attempts made
	Attempts int

	// Err is the error from the final attempt
	Err error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("provider %q failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for error chain support.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Kind tags an error with its place in the taxonomy.
type Kind int

// Error kinds in classification priority order.
const (
	KindUnknown Kind = iota
	KindCancelled
	KindConfiguration
	KindUnsupportedProvider
	KindTimeout
	KindConnection
	KindVendorRequest
	KindMalformedResponse
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindConfiguration:
		return "configuration"
	case KindUnsupportedProvider:
		return "unsupported_provider"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindVendorRequest:
		return "vendor_request"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Checks run in a fixed order so that a wrapped
// chain carrying several tagged errors resolves deterministically.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		cfgErr    *ConfigurationError
		unsupErr  *UnsupportedProviderError
		timeErr   *TransportTimeoutError
		connErr   *TransportConnectionError
		vendorErr *VendorRequestError
		malErr    *MalformedResponseError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &unsupErr):
		return KindUnsupportedProvider
	case errors.As(err, &timeErr):
		return KindTimeout
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &vendorErr):
		return KindVendorRequest
	case errors.As(err, &malErr):
		return KindMalformedResponse
	case errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}
	return KindUnknown
}

// Retryable reports whether err is a transport failure worth another attempt.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindConnection:
		return true
	}
	return false
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"sync/atomic"
	"time"
)

// ClientConfig tunes the shared connection pool.
type ClientConfig struct {
	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration

	// DefaultConnectTimeout applies when an attempt carries no connect timeout
	DefaultConnectTimeout time.Duration

	// WrapTransport, when set, decorates the pooled transport (tracing
	// header injection, for example)
	WrapTransport func(http.RoundTripper) http.RoundTripper
}

// HTTPClient performs single-attempt exchanges with vendor APIs over one
// pooled transport. It never retries; retry policy belongs to the caller.
type HTTPClient struct {
	// client is the HTTP client with connection pooling
	client *http.Client

	// transport is kept for CloseIdleConnections
	transport *http.Transport
}

type connectTimeoutKey struct{}

// withConnectTimeout attaches the connect deadline the dialer should use.
func withConnectTimeout(ctx context.Context, d time.Duration) context.Context {
	if d <= 0 {
		return ctx
	}
	return context.WithValue(ctx, connectTimeoutKey{}, d)
}

// NewHTTPClient creates a client with connection pooling. The connect
// timeout of each attempt is taken from the request context so that one
// transport can serve providers with different timeouts.
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.DefaultConnectTimeout == 0 {
		cfg.DefaultConnectTimeout = 10 * time.Second
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := net.Dialer{
			Timeout:   cfg.DefaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}
		if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok {
			dialer.Timeout = d
		}
		return dialer.DialContext(ctx, network, addr)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dial,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.DefaultConnectTimeout,
		ForceAttemptHTTP2:   true,
	}

	var roundTripper http.RoundTripper = transport
	if cfg.WrapTransport != nil {
		roundTripper = cfg.WrapTransport(transport)
	}

	return &HTTPClient{
		client:    &http.Client{Transport: roundTripper},
		transport: transport,
	}
}

// Request is one outbound vendor call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a fully read vendor reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// errReadTimeout is the cancellation cause recorded when the read timer
// fires before the response body has been fully received.
var errReadTimeout = errors.New("read timeout exceeded")

// Do performs exactly one HTTP exchange bounded by timeouts. The connect
// timeout bounds only the dial; the read timeout starts once the request
// has been written and covers the response headers and body. Transport
// failures are classified into *TransportTimeoutError or
// *TransportConnectionError; cancellation of ctx is returned as the
// context error so that callers never retry it.
func (c *HTTPClient) Do(ctx context.Context, provider string, req Request, timeouts Timeouts) (*Response, error) {
	attemptCtx, cancel := context.WithCancelCause(withConnectTimeout(ctx, timeouts.Connect))
	defer cancel(nil)

	var readTimer atomic.Pointer[time.Timer]
	defer func() {
		if t := readTimer.Load(); t != nil {
			t.Stop()
		}
	}()
	if timeouts.Read > 0 {
		trace := &httptrace.ClientTrace{
			WroteRequest: func(httptrace.WroteRequestInfo) {
				t := time.AfterFunc(timeouts.Read, func() { cancel(errReadTimeout) })
				// The transport may rewrite the request on a fresh connection.
				if prev := readTimer.Swap(t); prev != nil {
					prev.Stop()
				}
			},
		}
		attemptCtx = httptrace.WithClientTrace(attemptCtx, trace)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, &TransportConnectionError{
			Provider: provider,
			Cause:    fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("Content-Type") == "" && req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, attemptCtx, provider, timeouts, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, attemptCtx, provider, timeouts, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// classifyTransportError maps a failed exchange onto the error taxonomy.
// Parent cancellation wins over any timeout that fired concurrently.
func classifyTransportError(parent, attempt context.Context, provider string, timeouts Timeouts, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("provider %q request aborted: %w", provider, parent.Err())
	}

	if errors.Is(context.Cause(attempt), errReadTimeout) {
		return &TransportTimeoutError{Provider: provider, Phase: "read", Timeout: timeouts.Read, Cause: errReadTimeout}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		if opErr.Timeout() {
			return &TransportTimeoutError{Provider: provider, Phase: "connect", Timeout: timeouts.Connect, Cause: err}
		}
		return &TransportConnectionError{Provider: provider, Cause: err}
	}

	// TLS handshake and other pre-write timeouts belong to connection setup.
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportTimeoutError{Provider: provider, Phase: "connect", Timeout: timeouts.Connect, Cause: err}
	}

	return &TransportConnectionError{Provider: provider, Cause: err}
}

// SendChat builds the vendor request through adapter, performs one
// exchange and normalizes the result. Non-2xx replies become
// *VendorRequestError carrying the adapter's extracted message.
func (c *HTTPClient) SendChat(ctx context.Context, adapter Adapter, messages []Message, model string, params Params, timeouts Timeouts) (*ChatResponse, error) {
	payload, err := adapter.BuildRequestBody(messages, model, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := adapter.ChatEndpoint(model)
	slog.Debug("sending request to provider",
		"provider", adapter.Name(),
		"endpoint", endpoint,
		"model", model,
	)

	resp, err := c.Do(ctx, adapter.Name(), Request{
		Method:  http.MethodPost,
		URL:     adapter.RequestURL(endpoint),
		Headers: adapter.BuildHeaders(),
		Body:    body,
	}, timeouts)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, vendorError(adapter, resp)
	}

	result, err := adapter.ParseResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	if result.Model == "" {
		result.Model = model
	}
	result.Provider = adapter.Name()
	return result, nil
}

// FetchModels performs one GET against the adapter's listing endpoint.
func (c *HTTPClient) FetchModels(ctx context.Context, adapter Adapter, timeouts Timeouts) ([]ModelInfo, error) {
	resp, err := c.Do(ctx, adapter.Name(), Request{
		Method:  http.MethodGet,
		URL:     adapter.RequestURL(adapter.ModelsEndpoint()),
		Headers: adapter.BuildHeaders(),
	}, timeouts)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, vendorError(adapter, resp)
	}

	models := adapter.ParseModelList(resp.Body)
	for i := range models {
		models[i].Provider = adapter.Name()
	}
	return models, nil
}

// CloseIdleConnections releases pooled connections.
func (c *HTTPClient) CloseIdleConnections() {
	c.transport.CloseIdleConnections()
}

func vendorError(adapter Adapter, resp *Response) *VendorRequestError {
	err := &VendorRequestError{
		Provider:   adapter.Name(),
		StatusCode: resp.StatusCode,
		Message:    adapter.ParseError(resp.StatusCode, resp.Body),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		err.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return err
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Adapter translates between the canonical request/response shapes and one
// vendor's HTTP API. Adapters are immutable after construction and safe for
// concurrent use; they never perform I/O themselves. The HTTPClient drives
// the exchange and the dispatcher owns retries.
//
// Example usage:
//
//	adapter, err := openai.NewAdapter(cfg)
//	if err != nil {
//	    return err
//	}
//
//	client := providers.NewHTTPClient(providers.ClientConfig{})
//	resp, err := client.SendChat(ctx, adapter, messages, "gpt-4o-mini", nil, cfg.DefaultTimeouts())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Choice.Content)
type Adapter interface {
	// Name returns the configured provider name (e.g., "openai", "my-vllm").
	Name() string

	// Config returns a copy of the provider configuration.
	Config() ProviderConfig

	// BuildHeaders returns the HTTP headers for every request, including
	// the vendor's authentication header when a credential is configured.
	BuildHeaders() map[string]string

	// BuildRequestBody returns the JSON-encodable chat request body.
	// Reserved dispatcher keys have already been removed from params.
	BuildRequestBody(messages []Message, model string, params Params) (any, error)

	// ChatEndpoint returns the absolute chat endpoint for model.
	ChatEndpoint(model string) string

	// ModelsEndpoint returns the absolute model listing endpoint.
	ModelsEndpoint() string

	// RequestURL finalizes an endpoint into the URL actually requested.
	// Vendors that authenticate through the query string append it here.
	RequestURL(endpoint string) string

	// ParseResponse normalizes a 2xx chat body. It returns a
	// *MalformedResponseError only when the body is not JSON; missing
	// fields yield canonical defaults.
	ParseResponse(body []byte) (*ChatResponse, error)

	// ParseError extracts a human readable message from a non-2xx body.
	ParseError(statusCode int, body []byte) string

	// ParseModelList normalizes a model listing body. It never fails;
	// unknown shapes yield an empty slice.
	ParseModelList(body []byte) []ModelInfo

	// RequiresCredential reports whether an API key is mandatory.
	RequiresCredential() bool
}

// BaseAdapter carries the configuration and the behavior most vendors
// share. Concrete adapters embed it and override what differs.
type BaseAdapter struct {
	config ProviderConfig
}

// NewBaseAdapter stores a copy of config with its base URL normalized.
func NewBaseAdapter(config ProviderConfig) BaseAdapter {
	cfg := config.Clone()
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	return BaseAdapter{config: cfg}
}

// Name returns the provider's configured name.
func (b *BaseAdapter) Name() string {
	return b.config.Name
}

// Config returns a copy of the provider's configuration.
func (b *BaseAdapter) Config() ProviderConfig {
	return b.config.Clone()
}

// BaseURL returns the normalized base URL.
func (b *BaseAdapter) BaseURL() string {
	return b.config.BaseURL
}

// APIKey returns the configured credential.
func (b *BaseAdapter) APIKey() string {
	return b.config.APIKey
}

// Endpoint joins path onto the base URL.
func (b *BaseAdapter) Endpoint(path string) string {
	return b.config.BaseURL + strings.TrimLeft(path, "/")
}

// BaseHeaders returns the JSON content type plus any configured static headers.
func (b *BaseAdapter) BaseHeaders() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range b.config.Headers {
		headers[k] = v
	}
	return headers
}

// RequestURL returns endpoint unchanged.
func (b *BaseAdapter) RequestURL(endpoint string) string {
	return endpoint
}

// ParseError extracts the vendor message with ExtractErrorMessage.
func (b *BaseAdapter) ParseError(statusCode int, body []byte) string {
	return ExtractErrorMessage(statusCode, body)
}

// RequiresCredential returns true.
func (b *BaseAdapter) RequiresCredential() bool {
	return true
}

// Decode unmarshals a vendor body into v. Invalid JSON is reported as a
// *MalformedResponseError; type mismatches inside valid JSON are tolerated
// and leave the affected fields at their zero values.
func (b *BaseAdapter) Decode(body []byte, v any) error {
	return DecodeBody(b.config.Name, body, v)
}

// DecodeBody is the free-standing form of BaseAdapter.Decode.
func DecodeBody(provider string, body []byte, v any) error {
	if !json.Valid(body) {
		return &MalformedResponseError{
			Provider:    provider,
			RawResponse: truncate(string(body), 512),
			Cause:       errors.New("response body is not valid JSON"),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil
		}
		return &MalformedResponseError{
			Provider:    provider,
			RawResponse: truncate(string(body), 512),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	return nil
}

// errorKeys are tried in order when extracting a vendor error message.
var errorKeys = []string{"error", "message", "detail", "description"}

// ExtractErrorMessage pulls a message out of the common error body shapes:
// {"error":{"message":...}}, {"error":"..."}, {"message":...},
// {"detail":...} and {"description":...}. Anything else yields the raw
// body text, or the HTTP status text for an empty body.
func ExtractErrorMessage(statusCode int, body []byte) string {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err == nil {
	lookup:
		for _, key := range errorKeys {
			value, ok := data[key]
			if !ok || value == nil {
				continue
			}
			switch v := value.(type) {
			case string:
				return v
			case map[string]any:
				if msg, ok := v["message"].(string); ok {
					return msg
				}
				encoded, _ := json.Marshal(v)
				return string(encoded)
			default:
				// Numbers, booleans and arrays are reported as the raw body.
				break lookup
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("HTTP %d %s", statusCode, http.StatusText(statusCode))
	}
	return truncate(text, 1024)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

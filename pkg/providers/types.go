package providers

import (
	"encoding/json"
	"strings"
	"time"
)

// UsageUnknown is reported for any token count the vendor did not return.
const UsageUnknown = -1

// Message represents a single message in a conversation.
// It is provider-agnostic and will be transformed to provider-specific formats.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// Params holds vendor tuning parameters (temperature, max_tokens, top_p, ...).
// Keys the adapter does not understand are forwarded as-is by
// OpenAI-compatible adapters and ignored by the others.
type Params map[string]any

// Clone returns a shallow copy of p. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Float returns the value under key as a float64.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Int returns the value under key as an int.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// Strings returns the value under key as a string slice. A single string
// is returned as a one-element slice.
func (p Params) Strings(key string) ([]string, bool) {
	switch v := p[key].(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Usage tracks token consumption for a request.
// Counts the vendor did not report are UsageUnknown.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UnknownUsage returns a Usage with every count set to UsageUnknown.
func UnknownUsage() Usage {
	return Usage{
		PromptTokens:     UsageUnknown,
		CompletionTokens: UsageUnknown,
		TotalTokens:      UsageUnknown,
	}
}

// NewUsage builds a Usage from prompt and completion counts, deriving the
// total when both are known.
func NewUsage(prompt, completion int) Usage {
	u := Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: UsageUnknown}
	if prompt >= 0 && completion >= 0 {
		u.TotalTokens = prompt + completion
	}
	return u
}

// Choice is the single generated message of a ChatResponse.
type Choice struct {
	// Role is always RoleAssistant
	Role string `json:"role"`

	// Content is the generated text; empty when the vendor returned none
	Content string `json:"content"`

	// FinishReason is one of the FinishReason* constants
	FinishReason string `json:"finish_reason"`
}

// ChatResponse is the canonical response shape shared by every adapter.
type ChatResponse struct {
	// ID is the vendor response identifier, if any
	ID string `json:"id,omitempty"`

	// Choice holds the generated message
	Choice Choice `json:"choice"`

	// Usage holds token counts; UsageUnknown where not reported
	Usage Usage `json:"usage"`

	// Model is the model that produced the response (falls back to the requested model)
	Model string `json:"model"`

	// Provider is the configured provider name that served the request
	Provider string `json:"provider,omitempty"`

	// Attempts is the number of transport attempts the dispatcher made
	Attempts int `json:"attempts,omitempty"`
}

// NewChatResponse returns a response with the canonical defaults applied:
// assistant role, unknown finish reason and unknown usage.
func NewChatResponse(model string) *ChatResponse {
	return &ChatResponse{
		Choice: Choice{
			Role:         RoleAssistant,
			FinishReason: FinishReasonUnknown,
		},
		Usage: UnknownUsage(),
		Model: model,
	}
}

// ModelInfo describes a model reported by a vendor listing endpoint.
type ModelInfo struct {
	// ID is the identifier to pass as the model name
	ID string `json:"id"`

	// DisplayName is a human readable name, if the vendor supplies one
	DisplayName string `json:"display_name,omitempty"`

	// Provider is the configured provider name
	Provider string `json:"provider"`

	// Created is the Unix creation timestamp, 0 if unknown
	Created int64 `json:"created,omitempty"`

	// Description is free text supplied by the vendor
	Description string `json:"description,omitempty"`

	// Extra carries vendor-specific metadata (size, context_length, pricing)
	Extra map[string]any `json:"extra,omitempty"`
}

// Timeouts pairs the connect and read deadlines of a single attempt.
type Timeouts struct {
	// Connect bounds connection establishment
	Connect time.Duration

	// Read bounds the rest of the exchange after the request is sent
	Read time.Duration
}

// ProviderConfig contains configuration for a single provider instance.
// This is the resolved form of config.ProviderConfig: placeholders are
// expanded and timeouts are inherited from the global settings.
type ProviderConfig struct {
	// Name is the provider identifier (e.g., "openai", "anthropic")
	Name string

	// Type selects the adapter; empty means Name
	Type string

	// BaseURL is the API endpoint base URL, always ending in "/"
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// DefaultModel is used when the caller does not name a model
	DefaultModel string

	// DefaultParams are merged under per-call parameters
	DefaultParams Params

	// Timeout is the default read timeout applied when a call gives none
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout bounds reading the response
	ReadTimeout time.Duration

	// Headers are extra static headers sent with every request
	Headers map[string]string

	// HTTPReferer is sent as HTTP-Referer by vendors that attribute traffic
	HTTPReferer string

	// AppName is sent as X-Title by vendors that attribute traffic
	AppName string
}

// AdapterType returns Type, or Name when Type is empty.
func (c ProviderConfig) AdapterType() string {
	if c.Type != "" {
		return c.Type
	}
	return c.Name
}

// Clone returns a deep copy of the mutable fields.
func (c ProviderConfig) Clone() ProviderConfig {
	out := c
	out.DefaultParams = c.DefaultParams.Clone()
	out.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	return out
}

// DefaultTimeouts returns the connect/read pair used when a call does not
// override it.
func (c ProviderConfig) DefaultTimeouts() Timeouts {
	read := c.ReadTimeout
	if read == 0 {
		read = c.Timeout
	}
	return Timeouts{Connect: c.ConnectTimeout, Read: read}
}

// NormalizeBaseURL returns base with exactly one trailing slash.
func NormalizeBaseURL(base string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/"
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
	FinishReasonError         = "error"
	FinishReasonUnknown       = "unknown"
)

package qwen

import (
	"log/slog"

	"mercator-hq/relay/pkg/providers"
)

// DefaultBaseURL is the DashScope native API root.
const DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1/"

// Adapter speaks the native DashScope text-generation protocol, which
// nests messages under input and sampling settings under parameters.
// Qwen models are also reachable through the OpenAI-compatible preset in
// package generic.
type Adapter struct {
	providers.BaseAdapter
}

// NewAdapter creates a new DashScope adapter.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	if config.Name == "" {
		return nil, &providers.ConfigurationError{
			Provider: "dashscope",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	a := &Adapter{BaseAdapter: providers.NewBaseAdapter(config)}

	slog.Debug("DashScope adapter initialized",
		"provider", config.Name,
		"base_url", a.BaseURL(),
	)

	return a, nil
}

// BuildHeaders returns bearer authentication and the UTF-8 JSON content type.
func (a *Adapter) BuildHeaders() map[string]string {
	headers := a.BaseHeaders()
	headers["Content-Type"] = "application/json;charset=utf8"
	if key := a.APIKey(); key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return headers
}

// ChatEndpoint returns the generation URL. The model travels in the body.
func (a *Adapter) ChatEndpoint(string) string {
	return a.Endpoint("services/aigc/text-generation/generation")
}

// ModelsEndpoint returns the model listing URL.
func (a *Adapter) ModelsEndpoint() string {
	return a.Endpoint("services/aigc/text-generation/models")
}

var _ providers.Adapter = (*Adapter)(nil)

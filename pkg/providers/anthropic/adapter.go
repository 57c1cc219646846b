package anthropic

import (
	"log/slog"

	"mercator-hq/relay/pkg/providers"
)

const (
	// DefaultBaseURL is used when the configuration leaves api_base empty.
	DefaultBaseURL = "https://api.anthropic.com/v1/"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// Adapter is the Anthropic Messages API adapter.
type Adapter struct {
	providers.BaseAdapter
}

// NewAdapter creates a new Anthropic adapter.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	if config.Name == "" {
		return nil, &providers.ConfigurationError{
			Provider: "anthropic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	a := &Adapter{BaseAdapter: providers.NewBaseAdapter(config)}

	slog.Debug("Anthropic adapter initialized",
		"provider", config.Name,
		"base_url", a.BaseURL(),
	)

	return a, nil
}

// BuildHeaders returns x-api-key authentication and the API version.
func (a *Adapter) BuildHeaders() map[string]string {
	headers := a.BaseHeaders()
	headers["anthropic-version"] = APIVersion
	if key := a.APIKey(); key != "" {
		headers["x-api-key"] = key
	}
	return headers
}

// ChatEndpoint returns the messages URL. The model travels in the body.
func (a *Adapter) ChatEndpoint(string) string {
	return a.Endpoint("messages")
}

// ModelsEndpoint returns the model listing URL.
func (a *Adapter) ModelsEndpoint() string {
	return a.Endpoint("models")
}

var _ providers.Adapter = (*Adapter)(nil)

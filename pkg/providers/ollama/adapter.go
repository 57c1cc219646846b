package ollama

import (
	"log/slog"

	"mercator-hq/relay/pkg/providers"
)

// DefaultBaseURL is the local Ollama daemon.
const DefaultBaseURL = "http://localhost:11434/api/"

// Adapter is the Ollama /api/chat adapter. Ollama runs locally and needs
// no credential.
type Adapter struct {
	providers.BaseAdapter
}

// NewAdapter creates a new Ollama adapter.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	if config.Name == "" {
		return nil, &providers.ConfigurationError{
			Provider: "ollama",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	a := &Adapter{BaseAdapter: providers.NewBaseAdapter(config)}

	slog.Debug("Ollama adapter initialized",
		"provider", config.Name,
		"base_url", a.BaseURL(),
	)

	return a, nil
}

// BuildHeaders returns the JSON content type plus a bearer token when one
// is configured (for daemons behind an authenticating proxy).
func (a *Adapter) BuildHeaders() map[string]string {
	headers := a.BaseHeaders()
	if key := a.APIKey(); key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return headers
}

// ChatEndpoint returns the chat URL. The model travels in the body.
func (a *Adapter) ChatEndpoint(string) string {
	return a.Endpoint("chat")
}

// ModelsEndpoint returns the local tags URL.
func (a *Adapter) ModelsEndpoint() string {
	return a.Endpoint("tags")
}

// RequiresCredential returns false.
func (a *Adapter) RequiresCredential() bool {
	return false
}

var _ providers.Adapter = (*Adapter)(nil)

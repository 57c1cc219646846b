package gemini

import (
	"log/slog"
	"net/url"
	"strings"

	"mercator-hq/relay/pkg/providers"
)

// DefaultBaseURL is used when the configuration leaves api_base empty.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/"

// Adapter is the Google Gemini generateContent adapter. The credential is
// passed as a query parameter rather than a header.
type Adapter struct {
	providers.BaseAdapter
}

// NewAdapter creates a new Gemini adapter.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	if config.Name == "" {
		return nil, &providers.ConfigurationError{
			Provider: "gemini",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	a := &Adapter{BaseAdapter: providers.NewBaseAdapter(config)}

	slog.Debug("Gemini adapter initialized",
		"provider", config.Name,
		"base_url", a.BaseURL(),
	)

	return a, nil
}

// BuildHeaders returns the JSON content type; there is no auth header.
func (a *Adapter) BuildHeaders() map[string]string {
	return a.BaseHeaders()
}

// ChatEndpoint returns the generateContent URL for model.
func (a *Adapter) ChatEndpoint(model string) string {
	model = strings.TrimPrefix(model, "models/")
	return a.Endpoint("models/" + url.PathEscape(model) + ":generateContent")
}

// ModelsEndpoint returns the model listing URL.
func (a *Adapter) ModelsEndpoint() string {
	return a.Endpoint("models")
}

// RequestURL appends the key query parameter.
func (a *Adapter) RequestURL(endpoint string) string {
	key := a.APIKey()
	if key == "" {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "key=" + url.QueryEscape(key)
}

var _ providers.Adapter = (*Adapter)(nil)

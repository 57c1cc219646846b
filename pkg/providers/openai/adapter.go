package openai

import (
	"log/slog"
	"strings"

	"mercator-hq/relay/pkg/providers"
)

// DefaultBaseURL is used when the configuration leaves api_base empty.
const DefaultBaseURL = "https://api.openai.com/v1/"

// Variant captures the small differences between OpenAI-wire-compatible
// vendors. Everything else (body shape, response shape, error envelope)
// is shared.
type Variant struct {
	// ID is the adapter type registered for this variant
	ID string

	// DefaultBaseURL applies when the provider config has no base URL
	DefaultBaseURL string

	// ChatPath and ModelsPath are joined onto the base URL
	ChatPath   string
	ModelsPath string

	// VersionPrefix prepends "v1/" unless the base URL already ends in "v1/"
	VersionPrefix bool

	// CredentialOptional lets the adapter run without an API key
	CredentialOptional bool

	// Headers returns vendor headers derived from the provider config
	Headers func(cfg providers.ProviderConfig) map[string]string

	// DescribeModel enriches a listed model from its raw listing entry
	DescribeModel func(raw map[string]any, info *providers.ModelInfo)
}

// Standard is the OpenAI API itself.
var Standard = Variant{
	ID:             "openai",
	DefaultBaseURL: DefaultBaseURL,
	ChatPath:       "chat/completions",
	ModelsPath:     "models",
	VersionPrefix:  true,
}

// Adapter is the shared OpenAI-compatible adapter. Vendor presets are
// expressed as Variants rather than separate types.
type Adapter struct {
	providers.BaseAdapter
	variant Variant
}

// NewAdapter creates an adapter for the OpenAI API.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	return NewVariantAdapter(config, Standard)
}

// NewVariantAdapter creates an OpenAI-compatible adapter for variant.
func NewVariantAdapter(config providers.ProviderConfig, variant Variant) (*Adapter, error) {
	if config.Name == "" {
		return nil, &providers.ConfigurationError{
			Provider: variant.ID,
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = variant.DefaultBaseURL
	}
	if config.BaseURL == "" {
		return nil, &providers.ConfigurationError{
			Provider: config.Name,
			Field:    "api_base",
			Message:  "base URL is required for OpenAI-compatible providers",
		}
	}

	if variant.ChatPath == "" {
		variant.ChatPath = Standard.ChatPath
	}
	if variant.ModelsPath == "" {
		variant.ModelsPath = Standard.ModelsPath
	}

	a := &Adapter{
		BaseAdapter: providers.NewBaseAdapter(config),
		variant:     variant,
	}

	slog.Debug("OpenAI-compatible adapter initialized",
		"provider", config.Name,
		"variant", variant.ID,
		"base_url", a.BaseURL(),
	)

	return a, nil
}

// Variant returns the variant this adapter was built for.
func (a *Adapter) Variant() Variant {
	return a.variant
}

// BuildHeaders returns bearer authentication plus variant headers.
func (a *Adapter) BuildHeaders() map[string]string {
	headers := a.BaseHeaders()
	if key := a.APIKey(); key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	if a.variant.Headers != nil {
		for k, v := range a.variant.Headers(a.Config()) {
			if v != "" {
				headers[k] = v
			}
		}
	}
	return headers
}

// ChatEndpoint returns the chat completions URL. The model travels in the body.
func (a *Adapter) ChatEndpoint(string) string {
	return a.endpoint(a.variant.ChatPath)
}

// ModelsEndpoint returns the model listing URL.
func (a *Adapter) ModelsEndpoint() string {
	return a.endpoint(a.variant.ModelsPath)
}

func (a *Adapter) endpoint(path string) string {
	if a.variant.VersionPrefix && !strings.HasSuffix(a.BaseURL(), "v1/") {
		return a.Endpoint("v1/" + path)
	}
	return a.Endpoint(path)
}

// RequiresCredential reports whether the variant needs an API key.
func (a *Adapter) RequiresCredential() bool {
	return !a.variant.CredentialOptional
}

var _ providers.Adapter = (*Adapter)(nil)

package providerfactory

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/anthropic"
	"mercator-hq/relay/pkg/providers/gemini"
	"mercator-hq/relay/pkg/providers/generic"
	"mercator-hq/relay/pkg/providers/ollama"
	"mercator-hq/relay/pkg/providers/openai"
	"mercator-hq/relay/pkg/providers/qwen"
)

// DefaultAdapter is the adapter id unknown providers resolve to.
const DefaultAdapter = "openai"

// Constructor builds an adapter from a provider configuration.
type Constructor func(config providers.ProviderConfig) (providers.Adapter, error)

// Registry maps adapter ids to constructors.
//
// Resolution is permissive: an unknown id resolves to the OpenAI-compatible
// constructor so that any vendor speaking that wire format works without
// registration. Use Lookup where an unknown id must be an error.
//
// Registry is thread-safe; registration after startup is allowed.
type Registry struct {
	constructors map[string]Constructor
	fallback     string
	mu           sync.RWMutex
}

// NewRegistry returns a registry with every built-in adapter registered.
//
// Built-in adapter ids:
//   - "openai": OpenAI API
//   - "anthropic": Anthropic Messages API
//   - "gemini": Google Gemini generateContent
//   - "ollama": local Ollama daemon
//   - "qwen": Qwen through DashScope's OpenAI-compatible mode
//   - "dashscope": native DashScope text-generation protocol
//   - "deepseek", "openrouter", "doubao": OpenAI-compatible vendor presets
//   - "generic": self-hosted OpenAI-compatible servers (API key optional)
func NewRegistry() *Registry {
	r := NewEmptyRegistry()

	r.Register("openai", adapt(openai.NewAdapter))
	r.Register("anthropic", adapt(anthropic.NewAdapter))
	r.Register("gemini", adapt(gemini.NewAdapter))
	r.Register("ollama", adapt(ollama.NewAdapter))
	r.Register("dashscope", adapt(qwen.NewAdapter))
	r.Register("qwen", adapt(generic.NewQwen))
	r.Register("deepseek", adapt(generic.NewDeepSeek))
	r.Register("openrouter", adapt(generic.NewOpenRouter))
	r.Register("doubao", adapt(generic.NewDoubao))
	r.Register("generic", adapt(generic.NewAdapter))

	return r
}

// NewEmptyRegistry returns a registry with no adapters. Only the fallback
// id is preset; it must be registered before Resolve can succeed.
func NewEmptyRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		fallback:     DefaultAdapter,
	}
}

// adapt lifts a concrete constructor into a Constructor.
func adapt[A providers.Adapter](fn func(providers.ProviderConfig) (A, error)) Constructor {
	return func(config providers.ProviderConfig) (providers.Adapter, error) {
		a, err := fn(config)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Register binds id to constructor, replacing any previous binding.
func (r *Registry) Register(id string, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.constructors[id]; ok {
		slog.Debug("replacing registered adapter", "adapter", id)
	}
	r.constructors[id] = constructor
}

// Lookup returns the constructor registered under id, without fallback.
func (r *Registry) Lookup(id string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.constructors[id]
	return c, ok
}

// Resolve returns the constructor for id and the id it actually resolved
// to. Unknown ids resolve to the fallback adapter.
func (r *Registry) Resolve(id string) (Constructor, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.constructors[id]; ok {
		return c, id, nil
	}

	c, ok := r.constructors[r.fallback]
	if !ok {
		return nil, "", &providers.UnsupportedProviderError{Provider: id}
	}

	slog.Warn("unknown adapter, using OpenAI-compatible fallback",
		"adapter", id,
		"fallback", r.fallback,
	)
	return c, r.fallback, nil
}

// IDs returns the registered adapter ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.constructors))
	for id := range r.constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New creates an adapter for config. The adapter id is config.Type, or
// config.Name when Type is empty.
//
// Example:
//
//	registry := providerfactory.NewRegistry()
//	adapter, err := registry.New(providers.ProviderConfig{
//	    Name:   "openai",
//	    APIKey: "sk-...",
//	})
//	if err != nil {
//	    return err
//	}
func (r *Registry) New(config providers.ProviderConfig) (providers.Adapter, error) {
	id := config.AdapterType()

	constructor, resolved, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}

	slog.Debug("creating adapter",
		"name", config.Name,
		"adapter", resolved,
		"base_url", config.BaseURL,
	)

	adapter, err := constructor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter %q: %w", config.Name, err)
	}
	return adapter, nil
}

package providerfactory

import (
	"errors"
	"testing"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/anthropic"
	"mercator-hq/relay/pkg/providers/gemini"
	"mercator-hq/relay/pkg/providers/ollama"
	"mercator-hq/relay/pkg/providers/openai"
	"mercator-hq/relay/pkg/providers/qwen"
)

func TestRegistry_New(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		name    string
		config  providers.ProviderConfig
		check   func(providers.Adapter) bool
		variant string
	}{
		{"openai", providers.ProviderConfig{Name: "openai"}, isType[*openai.Adapter], "openai"},
		{"anthropic", providers.ProviderConfig{Name: "anthropic"}, isType[*anthropic.Adapter], ""},
		{"gemini", providers.ProviderConfig{Name: "gemini"}, isType[*gemini.Adapter], ""},
		{"ollama", providers.ProviderConfig{Name: "ollama"}, isType[*ollama.Adapter], ""},
		{"dashscope", providers.ProviderConfig{Name: "dashscope"}, isType[*qwen.Adapter], ""},
		{"qwen preset", providers.ProviderConfig{Name: "qwen"}, isType[*openai.Adapter], "qwen"},
		{"deepseek preset", providers.ProviderConfig{Name: "deepseek"}, isType[*openai.Adapter], "deepseek"},
		{"type overrides name", providers.ProviderConfig{Name: "claude", Type: "anthropic"}, isType[*anthropic.Adapter], ""},
		{"unknown falls back", providers.ProviderConfig{Name: "unknown-vendor", BaseURL: "https://llm.example.com/v1"}, isType[*openai.Adapter], "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := registry.New(tt.config)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			if !tt.check(adapter) {
				t.Fatalf("unexpected adapter type %T", adapter)
			}
			if adapter.Name() != tt.config.Name {
				t.Errorf("expected name %q, got %q", tt.config.Name, adapter.Name())
			}
			if tt.variant != "" {
				if got := adapter.(*openai.Adapter).Variant().ID; got != tt.variant {
					t.Errorf("expected variant %q, got %q", tt.variant, got)
				}
			}
		})
	}
}

func isType[T providers.Adapter](a providers.Adapter) bool {
	_, ok := a.(T)
	return ok
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	registry := NewRegistry()

	calls := 0
	custom := func(config providers.ProviderConfig) (providers.Adapter, error) {
		calls++
		return openai.NewAdapter(config)
	}

	registry.Register("anthropic", custom)
	registry.Register("anthropic", custom)

	adapter, err := registry.New(providers.ProviderConfig{Name: "anthropic"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, ok := adapter.(*openai.Adapter); !ok {
		t.Errorf("expected overridden constructor to be used, got %T", adapter)
	}
	if calls != 1 {
		t.Errorf("expected 1 constructor call, got %d", calls)
	}
}

func TestRegistry_ResolveAndLookup(t *testing.T) {
	registry := NewRegistry()

	_, resolved, err := registry.Resolve("unknown-vendor")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if resolved != DefaultAdapter {
		t.Errorf("expected fallback %q, got %q", DefaultAdapter, resolved)
	}

	if _, ok := registry.Lookup("unknown-vendor"); ok {
		t.Error("expected strict lookup to miss")
	}
	if _, ok := registry.Lookup("gemini"); !ok {
		t.Error("expected gemini to be registered")
	}

	ids := registry.IDs()
	if len(ids) != 10 || ids[0] != "anthropic" {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestEmptyRegistry_NoFallback(t *testing.T) {
	registry := NewEmptyRegistry()

	_, err := registry.New(providers.ProviderConfig{Name: "openai"})

	var unsupported *providers.UnsupportedProviderError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedProviderError, got %v", err)
	}
}

func TestRegistry_ConstructorError(t *testing.T) {
	registry := NewRegistry()

	// The generic preset has no default base URL.
	_, err := registry.New(providers.ProviderConfig{Name: "local", Type: "generic"})
	if providers.KindOf(err) != providers.KindConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

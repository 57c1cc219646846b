package providerfactory

import (
	"testing"

	"mercator-hq/relay/pkg/providers"
)

func TestManager_LoadFromConfig(t *testing.T) {
	m := NewManager(nil)

	err := m.LoadFromConfig([]providers.ProviderConfig{
		{Name: "openai", APIKey: "k"},
		{Name: "anthropic", APIKey: "k"},
		{Name: "local", Type: "generic"},
	})
	if err == nil {
		t.Fatal("expected error for the provider without a base URL")
	}

	if m.ProviderCount() != 3 {
		t.Errorf("expected 3 configured providers, got %d", m.ProviderCount())
	}

	names := m.GetProviderNames()
	if len(names) != 3 || names[0] != "anthropic" || names[2] != "openai" {
		t.Errorf("expected sorted names, got %v", names)
	}

	if _, ok := m.GetAdapter("openai"); !ok {
		t.Error("expected openai adapter")
	}
	if _, ok := m.GetAdapter("local"); ok {
		t.Error("expected no adapter for the failed provider")
	}
	if _, ok := m.GetConfig("local"); !ok {
		t.Error("expected failed provider configuration to be kept")
	}
}

func TestManager_AddReplaceRemove(t *testing.T) {
	m := NewManager(NewRegistry())

	if err := m.AddProvider(providers.ProviderConfig{Name: "p", Type: "openai", DefaultModel: "a"}); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}
	if err := m.AddProvider(providers.ProviderConfig{Name: "p", Type: "anthropic", DefaultModel: "b"}); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}

	cfg, _ := m.GetConfig("p")
	if cfg.DefaultModel != "b" {
		t.Errorf("expected replaced config, got %q", cfg.DefaultModel)
	}
	if m.ProviderCount() != 1 {
		t.Errorf("expected 1 provider, got %d", m.ProviderCount())
	}

	if err := m.RemoveProvider("p"); err != nil {
		t.Fatalf("RemoveProvider() failed: %v", err)
	}
	if err := m.RemoveProvider("p"); err == nil {
		t.Error("expected error removing unknown provider")
	}
	if _, ok := m.GetAdapter("p"); ok {
		t.Error("expected adapter to be gone")
	}
}

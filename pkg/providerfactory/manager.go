package providerfactory

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/relay/pkg/providers"
)

// Manager is the adapter table: one adapter per configured provider.
// Configurations whose adapter could not be built are remembered so that
// callers can still report on them, but they have no adapter.
//
// Manager is thread-safe and can be used concurrently.
type Manager struct {
	registry *Registry
	configs  map[string]providers.ProviderConfig
	adapters map[string]providers.Adapter
	mu       sync.RWMutex
}

// NewManager creates an empty manager that builds adapters with registry.
func NewManager(registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry: registry,
		configs:  make(map[string]providers.ProviderConfig),
		adapters: make(map[string]providers.Adapter),
	}
}

// AddProvider builds and stores the adapter for config, replacing any
// provider with the same name. The configuration is kept even when the
// adapter cannot be built.
func (m *Manager) AddProvider(config providers.ProviderConfig) error {
	adapter, err := m.registry.New(config)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.configs[config.Name]; ok {
		slog.Warn("replacing existing provider", "name", config.Name)
	}
	m.configs[config.Name] = config.Clone()
	delete(m.adapters, config.Name)

	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", config.Name, err)
	}

	m.adapters[config.Name] = adapter

	slog.Debug("provider added to manager",
		"name", config.Name,
		"adapter", config.AdapterType(),
		"total_providers", len(m.configs),
	)

	return nil
}

// RemoveProvider forgets a provider.
func (m *Manager) RemoveProvider(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.configs[name]; !ok {
		return &providers.UnsupportedProviderError{Provider: name}
	}

	delete(m.configs, name)
	delete(m.adapters, name)

	slog.Debug("provider removed from manager",
		"name", name,
		"remaining_providers", len(m.configs),
	)

	return nil
}

// GetAdapter returns the adapter for a configured provider.
func (m *Manager) GetAdapter(name string) (providers.Adapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	adapter, ok := m.adapters[name]
	return adapter, ok
}

// GetConfig returns the configuration of a provider.
func (m *Manager) GetConfig(name string) (providers.ProviderConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config, ok := m.configs[name]
	if !ok {
		return providers.ProviderConfig{}, false
	}
	return config.Clone(), true
}

// GetProviderNames returns the configured provider names in sorted order.
func (m *Manager) GetProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderCount returns the number of configured providers.
func (m *Manager) ProviderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.configs)
}

// LoadFromConfig adds every configuration. Failures are logged and
// counted; the remaining providers are still loaded.
func (m *Manager) LoadFromConfig(configs []providers.ProviderConfig) error {
	failed := 0
	for _, config := range configs {
		if err := m.AddProvider(config); err != nil {
			failed++
			slog.Error("failed to load provider",
				"name", config.Name,
				"error", err,
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to load %d provider(s)", failed)
	}

	slog.Debug("all providers loaded", "count", len(configs))
	return nil
}

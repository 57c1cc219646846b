package memory

import (
	"fmt"

	"mercator-hq/relay/pkg/config"
)

// DriverInMemory selects MemoryStore.
const DriverInMemory = "memory"

// Open builds the store described by cfg. The configured namespace is
// applied before opts, so an explicit WithNamespace wins.
func Open(cfg config.MemoryConfig, opts ...Option) (Store, error) {
	opts = append([]Option{WithNamespace(cfg.Namespace)}, opts...)

	switch cfg.Driver {
	case DriverInMemory:
		return NewMemoryStore(opts...), nil
	case "", DriverModernc, DriverCGO:
		return NewSQLiteStore(SQLiteConfig{
			Driver:       cfg.Driver,
			Path:         cfg.Path,
			BusyTimeout:  cfg.BusyTimeout.Std(),
			MaxOpenConns: cfg.MaxOpenConns,
		}, opts...)
	default:
		return nil, fmt.Errorf("unsupported memory driver %q", cfg.Driver)
	}
}

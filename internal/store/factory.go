package store

import (
	"fmt"

	"github.com/JamesPrial/holon-descriptors/pkg/config"
)

// NewBackend creates a record store based on the configuration. The
// notification buffer comes from the settings unless opts override it.
func NewBackend(cfg *config.Settings, opts ...Option) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	all := append([]Option{WithBufferSize(cfg.Notifications.BufferSize)}, opts...)

	switch cfg.StorageType {
	case "sqlite":
		if cfg.StoragePath == "" {
			return nil, fmt.Errorf("storage path is required for SQLite backend")
		}
		return NewSqliteStore(cfg.StoragePath, cfg.Sqlite.WALMode, all...)
	case "memory", "":
		return NewMemoryStore(all...), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

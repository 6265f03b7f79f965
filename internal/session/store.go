// Package session persists the handful of values that survive a restart:
// the device id, the bearer token and the internal bypass key.
package session

import (
	"context"
	"fmt"

	"ocrweb/internal/infra"
)

// Keys persisted across sessions. Nothing else is stored.
const (
	KeyDeviceID    = "device_id"
	KeyAccessToken = "access_token"
	KeyInternalKey = "internal_key"
)

// Store is a small key-value persistence port.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the store selected by cfg.SessionStore.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (Store, error) {
	switch cfg.SessionStore {
	case infra.SessionStoreMemory:
		return NewMemoryStore(), nil
	case infra.SessionStoreFile, "":
		return NewFileStore(cfg.SessionDir)
	case infra.SessionStoreSQLite:
		return OpenSQLite(cfg.SessionDir)
	case infra.SessionStorePostgres:
		pool, err := infra.NewSessionPool(ctx, infra.SessionPoolOptionsFromConfig(cfg), &logger)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		runner := infra.NewSQLRunner(pool, &logger)
		store := NewPostgresStore(runner, cfg.SessionNamespace)
		store.closer = pool.Close
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("session: unsupported store %q", cfg.SessionStore)
	}
}

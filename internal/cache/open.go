package cache

import (
	"context"
	"fmt"
	"log/slog"

	"factcheck/internal/config"
)

// Open builds a Cache for the configured driver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Cache.Driver {
	case config.CacheMemory:
		backend = NewMemoryBackend()
	case config.CachePostgres:
		backend, err = OpenPostgres(ctx, cfg.Cache.PostgresDSN)
	case config.CacheSQLite, "":
		backend, err = OpenSQLite(ctx, cfg.Cache.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Driver, err)
	}
	return New(backend, logger), nil
}

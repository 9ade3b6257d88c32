package testsupport

import (
	"context"
	"testing"

	"factcheck/internal/cache"
	"factcheck/internal/config"
)

// MustOpenCache opens the configured result cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *cache.Cache {
	t.Helper()

	c, err := cache.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

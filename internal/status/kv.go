package status

import (
	"context"
	"sync"
	"time"
)

// KV is a string key-value store whose entries expire after a TTL.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ok=false for missing or expired keys.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryKV is an in-process KV. Expired entries are dropped lazily on read
// and swept on write.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	writes  int
}

// NewMemoryKV returns an empty store. A nil clock uses time.Now.
func NewMemoryKV(now func() time.Time) *MemoryKV {
	if now == nil {
		now = time.Now
	}
	return &MemoryKV{entries: make(map[string]memoryEntry), now: now}
}

func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.entries[key] = memoryEntry{value: value, expires: now.Add(ttl)}
	m.writes++
	if m.writes%256 == 0 {
		for k, entry := range m.entries {
			if !now.Before(entry.expires) {
				delete(m.entries, k)
			}
		}
	}
	return nil
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(entry.expires) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

package cache

import (
	"context"
	"sync"
)

// MemoryBackend keeps results in process memory.
type MemoryBackend struct {
	mu            sync.RWMutex
	rows          []Result
	byFingerprint map[string]int
	byCode        map[string]int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		byFingerprint: make(map[string]int),
		byCode:        make(map[string]int),
	}
}

func (m *MemoryBackend) FindByFingerprint(_ context.Context, fingerprint string) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx, ok := m.byFingerprint[fingerprint]; ok {
		row := m.rows[idx]
		return &row, nil
	}
	return nil, nil
}

func (m *MemoryBackend) FindByShortCode(_ context.Context, code string) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx, ok := m.byCode[code]; ok {
		row := m.rows[idx]
		return &row, nil
	}
	return nil, nil
}

func (m *MemoryBackend) ShortCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byCode[code]
	return ok, nil
}

func (m *MemoryBackend) Insert(_ context.Context, result *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byFingerprint[result.Fingerprint]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byCode[result.ShortCode]; ok {
		return ErrCodeTaken
	}
	result.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *result)
	m.byFingerprint[result.Fingerprint] = len(m.rows) - 1
	m.byCode[result.ShortCode] = len(m.rows) - 1
	return nil
}

func (m *MemoryBackend) List(_ context.Context, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Result, 0, n)
	for i := len(m.rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }

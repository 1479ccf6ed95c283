package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in a map. Useful for tests and throwaway runs.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string]string{}}
}

// NewMemoryBackendWith seeds the backend with a copy of values.
func NewMemoryBackendWith(values map[string]string) *MemoryBackend {
	m := NewMemoryBackend()
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

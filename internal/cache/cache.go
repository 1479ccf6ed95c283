// Package cache holds the in-process caches used for rendered reports.
package cache

import (
	"sync"
	"time"

	"fincal/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically evicts expired entries from registered caches.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *log.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// CleanAll runs one eviction pass and returns the number of removed entries.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.CleanAll(); n > 0 {
					m.logger.Debug("expired cache entries removed", log.FieldCount, n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine started by StartCleanup. It is safe to call
// more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

// Wait blocks until the cleanup goroutine has returned.
func (m *Manager) Wait() { <-m.done }

// Package ratelimit throttles API writes per client with a fixed one-minute
// window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Limiter counts requests per client key inside the current window.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientWindow
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	limit           int
	cleanupInterval time.Duration
	now             func() time.Time

	rejected atomic.Int64
}

type clientWindow struct {
	start    time.Time
	requests int
}

// Config holds limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// DefaultConfig allows 120 writes a minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter and its cleanup goroutine. Call Stop to end it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	rl := &Limiter{
		clients:         make(map[string]*clientWindow),
		stopCleanup:     make(chan struct{}),
		limit:           config.RequestsPerMinute,
		cleanupInterval: config.CleanupInterval,
		now:             config.Clock,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow records one request for key and reports whether it fits the window.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok || now.Sub(c.start) >= window {
		rl.clients[key] = &clientWindow{start: now, requests: 1}
		return true
	}
	c.requests++
	if c.requests > rl.limit {
		rl.rejected.Add(1)
		return false
	}
	return true
}

// RetryAfter returns how long key has to wait for a fresh window.
func (rl *Limiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[key]
	if !ok {
		return 0
	}
	if d := window - rl.now().Sub(c.start); d > 0 {
		return d
	}
	return 0
}

func (rl *Limiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup drops clients whose window ended.
func (rl *Limiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, c := range rl.clients {
		if now.Sub(c.start) >= window {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of tracked clients.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

// Metrics is a snapshot of limiter counters.
type Metrics struct {
	Rejected    int64 `json:"rejected"`
	ClientCount int   `json:"clients"`
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{Rejected: rl.rejected.Load(), ClientCount: rl.ActiveClients()}
}

// Writes limits only requests that change state. Reads pass through.
func Writes(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Only requests for which applies returns true are counted; a nil
// applies counts every request. onLimit replaces the default plain-text
// reply when set.
func (rl *Limiter) Middleware(
	extractKey func(*http.Request) string,
	applies func(*http.Request) bool,
	onLimit func(http.ResponseWriter, *http.Request),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies != nil && !applies(r) {
				next.ServeHTTP(w, r)
				return
			}
			key := extractKey(r)
			if !rl.Allow(key) {
				secs := int(rl.RetryAfter(key).Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

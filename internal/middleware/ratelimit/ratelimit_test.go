package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, limit int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: limit, Clock: clock.Now})
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window must be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("clients are counted separately")
	}

	clock.Advance(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window must reset the counter")
	}
	if got := rl.GetMetrics().Rejected; got != 1 {
		t.Fatalf("rejected = %d, want 1", got)
	}
}

func TestCleanupDropsExpiredClients(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)
	rl.Allow("a")
	rl.Allow("b")
	clock.Advance(30 * time.Second)
	rl.Allow("c")

	clock.Advance(40 * time.Second)
	if removed := rl.cleanup(); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("active = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddlewareLimitsWritesOnly(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(
		func(*http.Request) string { return "client" },
		Writes,
		nil,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/operations", nil))
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusNoContent {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	for i := 0; i < 3; i++ {
		if rec := do(http.MethodGet); rec.Code != http.StatusNoContent {
			t.Fatalf("GET = %d, reads are not limited", rec.Code)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

package cache

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a kept, got %q %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", "2")
	clk.t = clk.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("expected nothing else expired, got %d", n)
	}
	clk.t = clk.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected b expired, got %d", n)
	}
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
	c.Set("c", "3")
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Fatalf("cache unusable after purge")
	}
}

func TestManagerCleanAll(t *testing.T) {
	c, clk := newTestCache(10, time.Second)
	c.Set("a", "1")
	m := NewManager(nil)
	m.Register(c)
	clk.t = clk.t.Add(2 * time.Second)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
	m.Wait()
}

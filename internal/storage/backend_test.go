package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// exerciseBackend runs the behaviour every Backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := b.Get(ctx, "financial_calendar_data"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := b.Set(ctx, "financial_calendar_data", `{"operations":[]}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := b.Get(ctx, "financial_calendar_data")
	if err != nil || !ok || v != `{"operations":[]}` {
		t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
	}

	if err := b.Set(ctx, "financial_calendar_data", `{"operations":[1]}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := b.Get(ctx, "financial_calendar_data"); v != `{"operations":[1]}` {
		t.Fatalf("expected overwritten value, got %q", v)
	}

	if err := b.Set(ctx, "other/key with spaces", "x"); err != nil {
		t.Fatalf("set odd key: %v", err)
	}
	if v, ok, _ := b.Get(ctx, "other/key with spaces"); !ok || v != "x" {
		t.Fatalf("odd key not stored separately: %q %v", v, ok)
	}

	if err := b.Remove(ctx, "financial_calendar_data"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "financial_calendar_data"); ok {
		t.Fatalf("expected key removed")
	}
	if err := b.Remove(ctx, "never-set"); err != nil {
		t.Fatalf("removing a missing key should succeed, got %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestMemoryBackendWithCopiesSeed(t *testing.T) {
	seed := map[string]string{"k": "v"}
	m := NewMemoryBackendWith(seed)
	seed["k"] = "changed"
	if v, _, _ := m.Get(context.Background(), "k"); v != "v" {
		t.Fatalf("expected seed to be copied, got %q", v)
	}
}

func TestFileBackend(t *testing.T) {
	f, err := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	exerciseBackend(t, f)
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	f, _ := NewFileBackend(dir)
	if err := f.Set(ctx, "k", "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}
	g, _ := NewFileBackend(dir)
	if v, ok, _ := g.Get(ctx, "k"); !ok || v != "persisted" {
		t.Fatalf("expected value after reopen, got %q %v", v, ok)
	}
}

func TestSQLiteBackend(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "db", "fincal.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	if s.Dialect() != DialectSQLite {
		t.Fatalf("unexpected dialect %s", s.Dialect())
	}
	exerciseBackend(t, s)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fincal.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	s, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()
	if v, ok, _ := s.Get(context.Background(), "k"); !ok || v != "v" {
		t.Fatalf("expected value kept across reopen, got %q %v", v, ok)
	}
}

func TestWithQuota(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	b := WithQuota(inner, 8)

	if err := b.Set(ctx, "k", "12345678"); err != nil {
		t.Fatalf("value at the limit should fit: %v", err)
	}
	err := b.Set(ctx, "k", strings.Repeat("x", 9))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if v, _, _ := b.Get(ctx, "k"); v != "12345678" {
		t.Fatalf("rejected write must not change the stored value, got %q", v)
	}

	if WithQuota(inner, 0) != Backend(inner) {
		t.Fatalf("expected no wrapping for a zero quota")
	}
}

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q expected %v, got %v", in, want, got)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Format: "json", Output: &buf})
	l.Info("saved", FieldCount, 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec[FieldComponent] != ComponentLedger {
		t.Fatalf("expected component %q, got %v", ComponentLedger, rec[FieldComponent])
	}
	if rec[FieldCount] != float64(3) {
		t.Fatalf("expected count 3, got %v", rec[FieldCount])
	}

	buf.Reset()
	l.WithComponent(ComponentStorage).Debug("write")
	if !strings.Contains(buf.String(), `"component":"storage"`) {
		t.Fatalf("expected storage component, got %s", buf.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Format: "json", Output: &buf})

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"request_id":"req_1"`) {
		t.Fatalf("expected request id in %s", buf.String())
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpPersist, nil)

	out := buf.String()
	for _, want := range []string{`"error":"disk full"`, `"operation":"persist"`, `"level":"ERROR"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

// Package trace tags each request with an id and logs its completion.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"fincal/internal/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// HeaderRequestID carries the id in both directions.
const HeaderRequestID = "X-Request-ID"

// Incoming ids are kept only when they look harmless in logs.
var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware assigns request ids and records request metrics.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger

	total   atomic.Int64
	totalUS atomic.Int64
}

// NewMiddleware logs completed requests with logger. extractIP may be nil.
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Nop()
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
	}
}

// Middleware reuses a well-formed X-Request-ID from the client or makes a
// new one, echoes it on the response and logs the request when it ends.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if !validID.MatchString(id) {
			id = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		m.total.Add(1)
		m.totalUS.Add(elapsed.Microseconds())

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		m.logger.LogHTTPEnd(r.Context(), r, rw.status, elapsed.Milliseconds(), clientIP)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// GenerateRequestID returns "req_" followed by 16 hex digits.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID returns the id stored by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromRequest is GetRequestID for use with log.RequestIDMiddleware.
func FromRequest(r *http.Request) string { return GetRequestID(r.Context()) }

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests int64   `json:"totalRequests"`
	AverageMs     float64 `json:"averageMs"`
}

func (m *Middleware) GetMetrics() Metrics {
	n := m.total.Load()
	out := Metrics{TotalRequests: n}
	if n > 0 {
		out.AverageMs = float64(m.totalUS.Load()) / float64(n) / 1000
	}
	return out
}

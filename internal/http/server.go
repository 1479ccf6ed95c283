// Package http serves the ledger as a local JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fincal/internal/ledger"
	"fincal/internal/log"
	"fincal/internal/middleware/ratelimit"
	"fincal/internal/middleware/security"
	"fincal/internal/middleware/trace"
	"fincal/internal/report"
)

// Server is the API server. Handler carries the full middleware chain.
type Server struct {
	http.Server

	store   *ledger.Store
	reports *report.Service
	logger  *log.Logger
	now     func() time.Time
	started time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

type options struct {
	logger    *log.Logger
	now       func() time.Time
	rateLimit int
	headers   security.HeadersConfig
}

// Option configures NewServer.
type Option func(*options)

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides time.Now for default query values and file names.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithRateLimit caps state-changing requests per client and minute.
func WithRateLimit(perMinute int) Option { return func(o *options) { o.rateLimit = perMinute } }

// WithHeaders replaces the default security headers.
func WithHeaders(cfg security.HeadersConfig) Option { return func(o *options) { o.headers = cfg } }

// NewServer wires routes and middleware around store and reports.
func NewServer(addr string, store *ledger.Store, reports *report.Service, opts ...Option) *Server {
	o := options{
		logger:    log.Nop(),
		now:       time.Now,
		rateLimit: ratelimit.DefaultConfig().RequestsPerMinute,
		headers:   security.DefaultHeadersConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:    store,
		reports:  reports,
		logger:   logger,
		now:      o.now,
		started:  o.now(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.rateLimit}),
		detector: security.NewDetector(o.logger),
	}
	s.tracer = trace.NewMiddleware(o.logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Writes, s.onLimit)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(o.headers).Middleware(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = log.Middleware(logger)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/operations", s.handleListOperations)
	mux.HandleFunc("POST /api/operations", s.handleCreateOperation)
	mux.HandleFunc("DELETE /api/operations", s.handleClearOperations)
	mux.HandleFunc("GET /api/operations/{id}", s.handleGetOperation)
	mux.HandleFunc("PATCH /api/operations/{id}", s.handleUpdateOperation)
	mux.HandleFunc("DELETE /api/operations/{id}", s.handleDeleteOperation)
	mux.HandleFunc("GET /api/days/{date}", s.handleDay)
	mux.HandleFunc("GET /api/duplicates", s.handleDuplicates)
	mux.HandleFunc("GET /api/balance", s.handleBalance)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories/reset", s.handleResetCategories)
	mux.HandleFunc("POST /api/categories/import", s.handleImportCategories)
	mux.HandleFunc("GET /api/categories/{kind}", s.handleCategoriesOf)
	mux.HandleFunc("POST /api/categories/{kind}", s.handleAddCategory)
	mux.HandleFunc("PUT /api/categories/{kind}/{name}", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{kind}/{name}", s.handleRemoveCategory)
	mux.HandleFunc("POST /api/categories/{kind}/{name}/merge", s.handleMergeCategory)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/settings/dark-mode", s.handleToggleDarkMode)

	mux.HandleFunc("GET /api/aggregates/month", s.handleMonthAggregate)
	mux.HandleFunc("GET /api/aggregates/year", s.handleYearAggregate)
	mux.HandleFunc("GET /api/reports/{kind}", s.handleReport)
	mux.HandleFunc("GET /api/stats/periods", s.handlePeriodStats)
	mux.HandleFunc("GET /api/stats/categories", s.handleCategoryStats)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/backup", s.handleBackupInfo)
	mux.HandleFunc("POST /api/backup", s.handleCreateBackup)
	mux.HandleFunc("POST /api/restore", s.handleRestore)
}

// Shutdown stops the limiter and drains the server. Later calls return nil.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return err
}

func (s *Server) onLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	NewResponse().Status(http.StatusTooManyRequests).
		JSON(ErrorBody{Error: "rate limit exceeded, try again later", Level: ledger.LevelWarning}).
		Write(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady is ready once the ledger is loaded. A ledger that failed to
// persist its defaults still serves, flagged as not durable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ready",
		"durable": s.store.Durable(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"requests":  s.tracer.GetMetrics(),
		"rateLimit": s.limiter.GetMetrics(),
		"security":  s.detector.GetMetrics(),
	})
}

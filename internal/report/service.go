// Package report derives read-only reports from the ledger and renders them
// as Markdown, printable HTML or styled terminal text.
package report

import (
	"errors"
	"fmt"
	"time"

	"fincal/internal/cache"
	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/ledger"
	"fincal/internal/log"
)

// ErrInvalidInterval is the rule of errors for unknown trend intervals.
var ErrInvalidInterval = errors.New("invalid interval")

// Source is the slice of the ledger store reports are built from.
type Source interface {
	MonthAggregate(year, month0 int) ledger.MonthAggregate
	YearAggregate(year int) ledger.YearAggregate
	Operations(f ledger.Filter) []core.Operation
	Settings() core.Settings
}

// Service builds reports and caches them until the ledger changes.
type Service struct {
	src    Source
	cache  cache.Cache[any]
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithCache(c cache.Cache[any]) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentReport)
		}
	}
}

// WithClock sets the reference time of relative ranges such as "last month".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(src Source, opts ...Option) *Service {
	s := &Service{
		src:    src,
		cache:  cache.NewLRUCache[any](64, 10*time.Minute),
		logger: log.Nop().WithComponent(log.ComponentReport),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach purges the cache on every change published on bus.
func (s *Service) Attach(bus *events.Bus) (detach func()) {
	return bus.Subscribe(func(e events.Event) {
		s.cache.Purge()
		s.logger.Debug("report cache purged", log.FieldEvent, string(e.Name))
	})
}

// Settings exposes the ledger settings used for rendering.
func (s *Service) Settings() core.Settings { return s.src.Settings() }

func cached[T any](s *Service, key string, build func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if r, ok := v.(T); ok {
			return r, nil
		}
	}
	r, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, r)
	return r, nil
}

func invalidf(rule error, format string, args ...any) error {
	return &core.ValidationError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

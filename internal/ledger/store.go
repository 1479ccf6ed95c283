// Package ledger owns the finance calendar document: operations, categories
// and settings. Every mutation is validated, written to the storage backend
// and only then made visible and announced on the event bus.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/log"
	"fincal/internal/storage"
)

// DefaultKey is the storage key of the serialized document.
const DefaultKey = "financial_calendar_data"

// LoadStatus tells whether Load found a usable document.
type LoadStatus int

const (
	Loaded LoadStatus = iota
	Defaulted
)

func (s LoadStatus) String() string {
	if s == Defaulted {
		return "defaulted"
	}
	return "loaded"
}

type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithBus publishes change events on b instead of a private bus.
func WithBus(b *events.Bus) Option {
	return func(s *Store) {
		if b != nil {
			s.bus = b
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// WithClock replaces time.Now for export and backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator used for new operations.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	key     string
	doc     core.Document
	loaded  bool
	durable bool

	bus    *events.Bus
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		doc:     core.DefaultDocument(),
		bus:     events.NewBus(),
		logger:  log.Nop().WithComponent(log.ComponentLedger),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the bus change events are published on.
func (s *Store) Bus() *events.Bus { return s.bus }

// Loaded reports whether Load has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Durable reports whether the in-memory document is known to be stored.
// It is false after a load whose default or migrated document could not be
// written back.
func (s *Store) Durable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.durable
}

// Load reads the document from the backend. A missing, empty or malformed
// value yields the default document, which is then written back. Fields and
// operations of the wrong shape are dropped one by one; the original value is
// then kept under UnreadableKey before the repaired document replaces it. A
// read error leaves the store unloaded.
func (s *Store) Load(ctx context.Context) (LoadStatus, error) {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return Defaulted, fmt.Errorf("%w: read %s: %w", core.ErrPersist, s.key, err)
	}

	status := Loaded
	var doc core.Document
	dirty := false
	if !ok {
		status, doc, dirty = Defaulted, core.DefaultDocument(), true
	} else if dec, err := decodeStored([]byte(raw), s.newID); err != nil {
		s.logger.WarnContext(ctx, "stored document is unreadable, using defaults",
			log.FieldKey, s.key, log.FieldError, err.Error())
		status, doc, dirty = Defaulted, core.DefaultDocument(), true
	} else {
		doc, dirty = dec.doc, dec.changed
		if dec.empty {
			status = Defaulted
		}
		if len(dec.dropped) > 0 {
			s.quarantine(ctx, raw, dec.dropped)
		}
	}

	durable := true
	if dirty {
		if err := s.write(ctx, doc); err != nil {
			durable = false
			s.logger.WarnContext(ctx, "could not write back loaded document",
				log.FieldKey, s.key, log.FieldError, err.Error())
		}
	}

	s.mu.Lock()
	s.doc = doc
	s.loaded = true
	s.durable = durable
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ledger loaded",
		log.FieldOperation, log.OpLoad,
		"status", status.String(),
		log.FieldCount, len(doc.Operations))
	return status, nil
}

// UnreadableKey returns the backend key that keeps the last stored value Load
// could only read in part.
func (s *Store) UnreadableKey() string { return s.key + "_unreadable" }

func (s *Store) quarantine(ctx context.Context, raw string, dropped []error) {
	for _, err := range dropped {
		s.logger.WarnContext(ctx, "dropped unreadable part of stored document",
			log.FieldKey, s.key, log.FieldError, err.Error())
	}
	if err := s.backend.Set(ctx, s.UnreadableKey(), raw); err != nil {
		s.logger.WarnContext(ctx, "could not keep unreadable document",
			log.FieldKey, s.UnreadableKey(), log.FieldError, err.Error())
	}
}

func (s *Store) write(ctx context.Context, doc core.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", core.ErrPersist, err)
	}
	if err := s.backend.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersist, err)
	}
	return nil
}

// mutate applies fn to a copy of the document. The copy replaces the current
// document only after it was written, and the returned events are published
// once the lock is released.
func (s *Store) mutate(ctx context.Context, op string, fn func(d *core.Document) ([]events.Event, error)) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return core.ErrNotLoaded
	}
	next := s.doc.Clone()
	evs, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.write(ctx, next); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "persist failed, change discarded",
			log.FieldOperation, op, log.FieldError, err.Error())
		return err
	}
	s.doc = next
	s.durable = true
	s.mu.Unlock()

	for _, e := range evs {
		if e.At.IsZero() {
			e.At = s.now().UTC()
		}
		s.bus.Publish(e)
	}
	return nil
}

// read runs fn under the read lock.
func (s *Store) read(fn func(d *core.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.doc)
}

// Document returns a deep copy of the whole document.
func (s *Store) Document() core.Document {
	var out core.Document
	s.read(func(d *core.Document) { out = d.Clone() })
	return out
}

package amqp

import (
	"context"
	"sync/atomic"
	"time"

	"fincal/internal/events"
	"fincal/internal/log"
)

// Publisher is the publishing half of Client.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

const (
	defaultBuffer      = 256
	defaultMaxAttempts = 3
)

// Forwarder relays bus events to a broker from its own goroutine so ledger
// writes never wait on the network.
type Forwarder struct {
	pub         Publisher
	queue       chan events.Event
	logger      *log.Logger
	maxAttempts int
	backoff     func(attempt int) time.Duration

	published atomic.Int64
	dropped   atomic.Int64
}

func NewForwarder(pub Publisher, logger *log.Logger, buffer int) *Forwarder {
	if logger == nil {
		logger = log.Nop()
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Forwarder{
		pub:         pub,
		queue:       make(chan events.Event, buffer),
		logger:      logger.WithComponent(log.ComponentAMQP),
		maxAttempts: defaultMaxAttempts,
		backoff:     exponentialBackoff,
	}
}

// Attach subscribes to bus. Events arriving while the buffer is full are
// dropped and counted.
func (f *Forwarder) Attach(bus *events.Bus) (detach func()) {
	return bus.Subscribe(func(e events.Event) {
		select {
		case f.queue <- e:
		default:
			f.dropped.Add(1)
			f.logger.Warn("forward buffer full, dropping change", log.FieldEvent, string(e.Name))
		}
	})
}

// Run publishes queued events until ctx is done.
func (f *Forwarder) Run(ctx context.Context) error {
	f.logger.InfoContext(ctx, "change forwarder started")
	for {
		select {
		case <-ctx.Done():
			f.logger.InfoContext(ctx, "change forwarder stopped",
				"published", f.published.Load(),
				"dropped", f.dropped.Load())
			return nil
		case e := <-f.queue:
			f.forward(ctx, e)
		}
	}
}

func (f *Forwarder) forward(ctx context.Context, e events.Event) {
	msg, err := NewChangeMessage(e)
	if err != nil {
		f.dropped.Add(1)
		f.logger.ErrorContext(ctx, "failed to encode change", log.FieldEvent, string(e.Name), log.FieldError, err)
		return
	}

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				f.dropped.Add(1)
				return
			case <-time.After(f.backoff(attempt - 1)):
			}
		}
		err = f.pub.PublishChange(ctx, msg)
		if err == nil {
			f.published.Add(1)
			return
		}
		f.logger.WarnContext(ctx, "publish change failed",
			log.FieldEvent, string(e.Name),
			log.FieldAttempt, attempt+1,
			log.FieldError, err)
	}
	f.dropped.Add(1)
	f.logger.ErrorContext(ctx, "giving up on change", log.FieldEvent, string(e.Name), log.FieldError, err)
}

// Stats returns how many events were published and dropped so far.
func (f *Forwarder) Stats() (published, dropped int64) {
	return f.published.Load(), f.dropped.Load()
}

package storage

import (
	"context"
	"fmt"
)

type quotaBackend struct {
	Backend
	max int
}

// WithQuota wraps b so that values longer than maxBytes are rejected with
// ErrQuotaExceeded. A non-positive maxBytes returns b unchanged.
func WithQuota(b Backend, maxBytes int) Backend {
	if maxBytes <= 0 {
		return b
	}
	return &quotaBackend{Backend: b, max: maxBytes}
}

func (q *quotaBackend) Set(ctx context.Context, key, value string) error {
	if len(value) > q.max {
		return fmt.Errorf("%w: %d bytes over a limit of %d", ErrQuotaExceeded, len(value), q.max)
	}
	return q.Backend.Set(ctx, key, value)
}

// Package storage provides the key-value backends that hold the serialized
// ledger document.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when a value does not fit the configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend is a string key-value store. Get reports ok=false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

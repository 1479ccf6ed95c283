// Package backend builds the storage backend selected by configuration.
package backend

import (
	"context"

	"fincal/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function.
type BackendResult struct {
	Backend storage.Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQL backends
	SQLiteDBPath string
	PostgresURL  string
	MySQLDSN     string

	// QuotaBytes caps stored values when positive.
	QuotaBytes int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MySQLBackend    BackendType = "mysql"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend, MySQLBackend:
		return true
	default:
		return false
	}
}

package backend

import (
	"context"
	"fmt"

	"fincal/internal/log"
	"fincal/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case MemoryBackend:
		res = &BackendResult{Backend: storage.NewMemoryBackend(), Cleanup: noCleanup}
		f.logger.InfoContext(ctx, "initialized memory backend")
	case FileBackend:
		res, err = f.createFileBackend(ctx, config)
	case SQLiteBackend, PostgresBackend, MySQLBackend:
		res, err = f.createSQLBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.QuotaBytes > 0 {
		res.Backend = storage.WithQuota(res.Backend, config.QuotaBytes)
		f.logger.InfoContext(ctx, "storage quota enabled", log.FieldBytes, config.QuotaBytes)
	}
	return res, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	fb, err := storage.NewFileBackend(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}
	f.logger.InfoContext(ctx, "initialized file backend", "data_directory", fb.Dir())
	return &BackendResult{Backend: fb, Cleanup: noCleanup}, nil
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var (
		sb  *storage.SQLBackend
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		sb, err = storage.NewSQLite(config.SQLiteDBPath)
	case PostgresBackend:
		sb, err = storage.NewPostgres(config.PostgresURL)
	case MySQLBackend:
		sb, err = storage.NewMySQL(config.MySQLDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
	}
	if err := sb.Ping(ctx); err != nil {
		sb.Close()
		return nil, fmt.Errorf("ping %s backend: %w", config.Type, err)
	}

	f.logger.InfoContext(ctx, "initialized SQL backend", log.FieldBackend, string(sb.Dialect()))
	return &BackendResult{Backend: sb, Cleanup: sb.Close}, nil
}

func noCleanup() error { return nil }

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

func (d Dialect) driverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

type queries struct {
	get    string
	upsert string
	remove string
}

func (d Dialect) queries() queries {
	switch d {
	case DialectPostgres:
		return queries{
			get:    `SELECT store_value FROM kv_store WHERE store_key = $1`,
			upsert: `INSERT INTO kv_store (store_key, store_value, updated_at) VALUES ($1, $2, now()) ON CONFLICT (store_key) DO UPDATE SET store_value = EXCLUDED.store_value, updated_at = now()`,
			remove: `DELETE FROM kv_store WHERE store_key = $1`,
		}
	case DialectMySQL:
		return queries{
			get:    `SELECT store_value FROM kv_store WHERE store_key = ?`,
			upsert: `INSERT INTO kv_store (store_key, store_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE store_value = VALUES(store_value)`,
			remove: `DELETE FROM kv_store WHERE store_key = ?`,
		}
	default:
		return queries{
			get:    `SELECT store_value FROM kv_store WHERE store_key = ?`,
			upsert: `INSERT INTO kv_store (store_key, store_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = CURRENT_TIMESTAMP`,
			remove: `DELETE FROM kv_store WHERE store_key = ?`,
		}
	}
}

// SQLBackend keeps values in the kv_store table.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
	q       queries
}

// NewSQLite opens (and creates) the database file at path.
func NewSQLite(path string) (*SQLBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return OpenSQL(DialectSQLite, path)
}

// NewPostgres connects with a postgres:// URL.
func NewPostgres(url string) (*SQLBackend, error) {
	return OpenSQL(DialectPostgres, url)
}

// NewMySQL connects with a go-sql-driver DSN.
func NewMySQL(dsn string) (*SQLBackend, error) {
	return OpenSQL(DialectMySQL, dsn)
}

// OpenSQL opens a connection, checks it and applies migrations.
func OpenSQL(dialect Dialect, dsn string) (*SQLBackend, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLBackend{db: db, dialect: dialect, q: dialect.queries()}, nil
}

func (s *SQLBackend) Dialect() Dialect { return s.dialect }

func (s *SQLBackend) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLBackend) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLBackend) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.remove, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

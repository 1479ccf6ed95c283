// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends accepted by DATA_BACKEND.
var Backends = []string{"memory", "file", "sqlite", "postgres", "mysql"}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend       string
	DataDir           string
	SQLiteDBPath      string
	PostgresURL       string
	MySQLDSN          string
	StorageKey        string
	StorageQuotaBytes int

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Backups
	BackupDir      string
	BackupInterval time.Duration
	BackupKeep     int

	// Reports
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadDotEnv reads .env style files into the environment. Variables that
// are already set win. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:       strings.ToLower(getEnv("DATA_BACKEND", "sqlite")),
		DataDir:           getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:      getEnv("SQLITE_DB_PATH", "./data/fincal.db"),
		PostgresURL:       getEnv("POSTGRES_URL", ""),
		MySQLDSN:          getEnv("MYSQL_DSN", ""),
		StorageKey:        getEnv("STORAGE_KEY", "financial_calendar_data"),
		StorageQuotaBytes: getEnvInt("STORAGE_QUOTA_BYTES", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fincal"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		BackupDir:      getEnv("BACKUP_DIR", "./data/backups"),
		BackupInterval: getEnvDuration("BACKUP_INTERVAL", time.Hour),
		BackupKeep:     getEnvInt("BACKUP_KEEP", 10),

		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 64),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 10*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}
	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL '%s': scheme must be 'postgres' or 'postgresql'", c.PostgresURL))
		}
	case "mysql":
		if c.MySQLDSN == "" {
			errors = append(errors, "MYSQL_DSN is required when using mysql backend")
		}
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}
	if c.StorageQuotaBytes < 0 {
		errors = append(errors, fmt.Sprintf("invalid storage quota %d: must not be negative", c.StorageQuotaBytes))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}
	if c.BackupInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at least 1 minute", c.BackupInterval))
	} else if c.BackupInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at most 7 days", c.BackupInterval))
	}
	if c.BackupKeep < 1 {
		errors = append(errors, fmt.Sprintf("invalid backup keep %d: must be at least 1", c.BackupKeep))
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be positive", c.ReportCacheTTL))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

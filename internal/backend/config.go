package backend

import (
	"fmt"

	"fincal/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		PostgresURL:   appConfig.PostgresURL,
		MySQLDSN:      appConfig.MySQLDSN,
		QuotaBytes:    appConfig.StorageQuotaBytes,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	case MySQLBackend:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MySQL DSN is required for mysql backend")
		}
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("quota must not be negative")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend, MySQLBackend}
}

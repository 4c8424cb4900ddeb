package backend

import (
	"fmt"

	"tracker/internal/config"
	"tracker/internal/storage/gormdb"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:           backendType,
		SQLiteDBPath:   appConfig.SQLiteDBPath,
		DatabaseURL:    appConfig.DatabaseURL,
		MemorySeedFile: appConfig.MemorySeedFile,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (want one of %v)", c.Type, GetBackendTypeStrings())
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend, MySQLBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for %s backend", c.Type)
		}
		dialect, err := gormdb.DialectOf(c.DatabaseURL)
		if err != nil {
			return err
		}
		if string(dialect) != string(c.Type) {
			return fmt.Errorf("database URL is for %s, not %s", dialect, c.Type)
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, PostgresBackend, MySQLBackend, MemoryBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

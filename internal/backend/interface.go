package backend

import (
	"context"

	"tracker/internal/storage"
)

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function.
type BackendResult struct {
	Store   storage.EntryStore
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds everything any backend needs.
type Config struct {
	Type BackendType

	// sqlite
	SQLiteDBPath string

	// postgres and mysql
	DatabaseURL string

	// memory; an empty path starts empty
	MemorySeedFile string
}

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MySQLBackend    BackendType = "mysql"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MySQLBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether several processes can use the backend at once.
func (bt BackendType) Shared() bool {
	return bt != MemoryBackend
}

package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tracker/internal/storage"
	"tracker/internal/storage/gormdb"
	"tracker/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	pool   gormdb.Config
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		pool:   gormdb.DefaultConfig(),
	}
}

// CreateBackend opens the configured store. Schema setup failures are
// returned so the caller can exit before serving.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend, MySQLBackend:
		return f.createServerBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	version, dirty, err := storage.SchemaVersion(storage.DSN(config.SQLiteDBPath))
	if err != nil {
		f.logger.Warn("Could not read schema version", "error", err)
	}
	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", version,
		"schema_dirty", dirty)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createServerBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := gormdb.Open(config.DatabaseURL, f.pool)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", config.Type, err)
	}
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("ping %s: %w", config.Type, err)
	}

	f.logger.Info("Initialized database backend",
		"type", config.Type.String(),
		"max_open_conns", f.pool.MaxOpenConns)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New()
	if config.MemorySeedFile != "" {
		seeded, err := memory.NewFromFile(config.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		store = seeded
	}

	f.logger.Info("Initialized memory backend",
		"seed_file", config.MemorySeedFile,
		"entries", store.Len())

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

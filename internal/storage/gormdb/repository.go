// Package gormdb is the server-database EntryStore for Postgres and MySQL.
package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracker/internal/core"
	"tracker/internal/storage"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config tunes the connection pool.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

// DefaultConfig returns pool settings suitable for a small service.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ storage.EntryStore = (*Repository)(nil)

// Open connects to the database at rawURL and migrates the schema.
func Open(rawURL string, cfg Config) (*Repository, error) {
	dialect, err := DialectOf(rawURL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case Postgres:
		dialector = postgres.Open(rawURL)
	case MySQL:
		dsn, err := MySQLDSN(rawURL)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	}
	return OpenDialector(dialector, cfg)
}

// OpenDialector is Open for an already-built gorm dialector.
func OpenDialector(dialector gorm.Dialector, cfg Config) (*Repository, error) {
	gormLogger := logger.Default
	if !cfg.LogSQL {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&entryRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Insert(ctx context.Context, e core.NewEntry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	rec := entryRecord{
		Pillar:      e.Pillar,
		Task:        e.Task,
		Description: e.Description,
		TimeSaved:   e.TimeSaved,
		MoneySaved:  e.MoneySaved,
		Date:        e.Date.String(),
		CreatedAt:   r.now().UTC().Truncate(time.Microsecond),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return rec.toEntry()
}

func (r *Repository) Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error) {
	if p.IsEmpty() {
		return core.Entry{}, core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return core.Entry{}, err
	}

	var rec entryRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&rec).Updates(patchColumns(p)).Error; err != nil {
			return err
		}
		return tx.First(&rec, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Entry{}, core.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry %d: %w", id, err)
	}
	return rec.toEntry()
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&entryRecord{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&entryRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete all entries: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, f core.ListFilter) ([]core.Entry, error) {
	q := r.db.WithContext(ctx).Model(&entryRecord{})
	if f.Pillar != "" {
		q = q.Where("pillar = ?", f.Pillar)
	}
	if !f.Since.IsZero() {
		q = q.Where("date >= ?", f.Since.String())
	}

	var recs []entryRecord
	if err := q.Order("date DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]core.Entry, 0, len(recs))
	for _, rec := range recs {
		e, err := rec.toEntry()
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *Repository) Summarize(ctx context.Context) (core.Summary, error) {
	var row struct {
		TimeTotal  float64
		MoneyTotal float64
	}
	err := r.db.WithContext(ctx).Model(&entryRecord{}).
		Select("COALESCE(SUM(time_saved), 0) AS time_total, COALESCE(SUM(money_saved), 0) AS money_total").
		Scan(&row).Error
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize entries: %w", err)
	}
	return core.Summary{TimeTotal: row.TimeTotal, MoneyTotal: row.MoneyTotal}, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tracker/internal/core"

	_ "modernc.org/sqlite"
)

const entryColumns = "id, pillar, task, description, time_saved, money_saved, date, created_at"

// SQLiteRepository is the embedded EntryStore.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ EntryStore = (*SQLiteRepository)(nil)

// DSN returns the connection string used for a database file.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, e core.NewEntry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	createdAt := r.now().UTC()

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO entries (pillar, task, description, time_saved, money_saved, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+entryColumns,
		e.Pillar, e.Task, e.Description, e.TimeSaved, e.MoneySaved,
		e.Date.String(), createdAt.Format(time.RFC3339Nano))

	entry, err := scanEntry(row)
	if err != nil {
		return core.Entry{}, fmt.Errorf("insert entry: %w", err)
	}

	slog.DebugContext(ctx, "Entry saved to SQLite",
		"id", entry.ID,
		"pillar", entry.Pillar,
		"time_saved", entry.TimeSaved,
		"money_saved", entry.MoneySaved)

	return entry, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error) {
	if p.IsEmpty() {
		return core.Entry{}, core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return core.Entry{}, err
	}

	sets, args := patchAssignments(p)
	args = append(args, id)

	row := r.db.QueryRowContext(ctx,
		"UPDATE entries SET "+strings.Join(sets, ", ")+" WHERE id = ? RETURNING "+entryColumns,
		args...)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry %d: %w", id, err)
	}
	return entry, nil
}

// patchAssignments returns the SET clauses and their arguments for the
// supplied fields of p.
func patchAssignments(p core.EntryPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Pillar != nil {
		add("pillar", *p.Pillar)
	}
	if p.Task != nil {
		add("task", *p.Task)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.TimeSaved != nil {
		add("time_saved", *p.TimeSaved)
	}
	if p.MoneySaved != nil {
		add("money_saved", *p.MoneySaved)
	}
	if p.Date != nil {
		add("date", p.Date.String())
	}
	return sets, args
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entry %d: rows affected: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM entries")
	if err != nil {
		return fmt.Errorf("delete all entries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		slog.InfoContext(ctx, "Cleared entries", "count", n)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, f core.ListFilter) ([]core.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Pillar != "" {
		where = append(where, "pillar = ?")
		args = append(args, f.Pillar)
	}
	if !f.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.Since.String())
	}

	query := "SELECT " + entryColumns + " FROM entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]core.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) Summarize(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(time_saved), 0.0), COALESCE(SUM(money_saved), 0.0) FROM entries",
	).Scan(&s.TimeTotal, &s.MoneyTotal)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize entries: %w", err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e         core.Entry
		date      string
		createdAt string
	)
	if err := row.Scan(&e.ID, &e.Pillar, &e.Task, &e.Description,
		&e.TimeSaved, &e.MoneySaved, &date, &createdAt); err != nil {
		return core.Entry{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	e.Date = d

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d: parse created_at %q: %w", e.ID, createdAt, err)
	}
	e.CreatedAt = ts
	return e, nil
}

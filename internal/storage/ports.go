package storage

import (
	"context"

	"tracker/internal/core"
)

// EntryStore persists entries. Implementations are safe for concurrent use.
type EntryStore interface {
	Insert(ctx context.Context, e core.NewEntry) (core.Entry, error)
	// Update replaces the supplied fields only. It returns core.ErrNoFields
	// for an empty patch and core.ErrNotFound when id does not exist.
	Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) error
	// List returns matching entries ordered by date then id, newest first.
	List(ctx context.Context, f core.ListFilter) ([]core.Entry, error)
	Summarize(ctx context.Context) (core.Summary, error)
	Ping(ctx context.Context) error
	Close() error
}

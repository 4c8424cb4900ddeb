package memory

import (
	"context"
	"sync"

	"tracker/internal/sheets"
)

// Store keeps written snapshots in memory.
type Store struct {
	mu     sync.Mutex
	writes int
	last   sheets.Snapshot
	rows   [][]any
	err    error
}

var _ sheets.SnapshotWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// FailWith makes subsequent writes return err. Nil restores success.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) WriteSnapshot(_ context.Context, snap sheets.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.last = snap
	s.rows = sheets.Rows(snap)
	return nil
}

// Writes counts successful writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Last returns the most recent snapshot and its rows.
func (s *Store) Last() (sheets.Snapshot, [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.rows
}

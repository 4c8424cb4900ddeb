package client

import (
	"sync"

	"tracker/internal/core"
)

// Store is the client's copy of the entry list and summary. Refreshes are
// tagged with a revision so a slow response never overwrites a newer one.
type Store struct {
	mu       sync.RWMutex
	entries  []core.Entry
	summary  core.Summary
	loaded   bool
	revision uint64
	applied  uint64
}

func NewStore() *Store {
	return &Store{}
}

// Begin starts a refresh and returns its revision.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	return s.revision
}

// Apply installs the result of refresh rev. It reports false, changing
// nothing, when a later refresh has already been applied.
func (s *Store) Apply(rev uint64, entries []core.Entry, summary core.Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev <= s.applied {
		return false
	}
	s.applied = rev
	s.entries = append([]core.Entry(nil), entries...)
	s.summary = summary
	s.loaded = true
	return true
}

// Entries returns a copy, newest first.
func (s *Store) Entries() []core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Entry(nil), s.entries...)
}

func (s *Store) Summary() core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Loaded reports whether any refresh has been applied.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

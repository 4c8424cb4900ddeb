// Package memory is an in-process EntryStore for tests and demos.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"tracker/internal/core"
	"tracker/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Entry
	now    func() time.Time
}

var _ storage.EntryStore = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1, items: make(map[int64]core.Entry), now: time.Now}
}

// WithClock replaces the clock used for CreatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// seedEntry is the on-disk form of a seeded entry.
type seedEntry struct {
	Pillar      string    `json:"pillar"`
	Task        string    `json:"task"`
	Description string    `json:"description"`
	TimeSaved   float64   `json:"timeSaved"`
	MoneySaved  float64   `json:"moneySaved"`
	Date        core.Date `json:"date"`
}

// NewFromFile builds a store seeded from a JSON array of entries. A missing
// file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedEntry
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, e := range seeds {
		_, err := s.Insert(context.Background(), core.NewEntry{
			Pillar:      e.Pillar,
			Task:        e.Task,
			Description: e.Description,
			TimeSaved:   e.TimeSaved,
			MoneySaved:  e.MoneySaved,
			Date:        e.Date,
		})
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return s, nil
}

func (s *Store) Insert(_ context.Context, e core.NewEntry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := core.Entry{
		ID:          s.nextID,
		Pillar:      e.Pillar,
		Task:        e.Task,
		Description: e.Description,
		TimeSaved:   e.TimeSaved,
		MoneySaved:  e.MoneySaved,
		Date:        e.Date,
		CreatedAt:   s.now().UTC(),
	}
	s.nextID++
	s.items[entry.ID] = entry
	return entry, nil
}

func (s *Store) Update(_ context.Context, id int64, p core.EntryPatch) (core.Entry, error) {
	if p.IsEmpty() {
		return core.Entry{}, core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return core.Entry{}, core.ErrNotFound
	}
	e = p.Apply(e)
	s.items[id] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

// DeleteAll removes every entry. Ids keep increasing afterwards.
func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[int64]core.Entry)
	return nil
}

func (s *Store) List(_ context.Context, f core.ListFilter) ([]core.Entry, error) {
	s.mu.Lock()
	out := make([]core.Entry, 0, len(s.items))
	for _, e := range s.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Summarize(_ context.Context) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Summary
	for _, e := range s.items {
		sum.TimeTotal += e.TimeSaved
		sum.MoneyTotal += e.MoneySaved
	}
	return sum, nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

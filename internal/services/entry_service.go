package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/notify"
	"tracker/internal/storage"
)

const summaryKey = "summary"

// EntryService orchestrates entry mutations across the store, the summary
// cache and the notification bus.
type EntryService struct {
	store     storage.EntryStore
	bus       notify.Bus
	summaries *cache.LRUCache[core.Summary]

	// generation changes on every invalidation so a summary computed before
	// a mutation is never cached after it.
	generation atomic.Uint64

	creates         atomic.Int64
	updates         atomic.Int64
	deletes         atomic.Int64
	clears          atomic.Int64
	publishFailures atomic.Int64
	invalidations   atomic.Int64
}

// Options configures an EntryService. A zero SummaryTTL disables caching.
type Options struct {
	SummaryTTL time.Duration
}

// Stats is a snapshot of service counters.
type Stats struct {
	Creates         int64
	Updates         int64
	Deletes         int64
	Clears          int64
	PublishFailures int64
	Invalidations   int64
	// EventsPublished and EventsDropped come from the local broker when the bus
	// reports them.
	EventsPublished int64
	EventsDropped   int64
	Cache           cache.Stats
}

type busStats interface {
	Stats() (published, dropped int64)
}

// NewEntryService wires a store to an optional bus.
func NewEntryService(store storage.EntryStore, bus notify.Bus, opts Options) *EntryService {
	s := &EntryService{store: store, bus: bus}
	if opts.SummaryTTL > 0 {
		s.summaries = cache.NewLRUCache[core.Summary](1, opts.SummaryTTL)
	}
	return s
}

// SummaryCache exposes the cache for registration with a cleanup manager.
// It is nil when caching is disabled.
func (s *EntryService) SummaryCache() *cache.LRUCache[core.Summary] {
	return s.summaries
}

func (s *EntryService) Create(ctx context.Context, e core.NewEntry) (core.Entry, error) {
	entry, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	s.creates.Add(1)
	s.changed(ctx, notify.ReasonCreate, entry.ID)
	return entry, nil
}

func (s *EntryService) Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error) {
	entry, err := s.store.Update(ctx, id, p)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry %d: %w", id, err)
	}
	s.updates.Add(1)
	s.changed(ctx, notify.ReasonUpdate, id)
	return entry, nil
}

// Delete reports whether the entry existed. Nothing is published for a
// missing id.
func (s *EntryService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}
	if deleted {
		s.deletes.Add(1)
		s.changed(ctx, notify.ReasonDelete, id)
	}
	return deleted, nil
}

func (s *EntryService) Clear(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	s.clears.Add(1)
	s.changed(ctx, notify.ReasonClear, 0)
	return nil
}

func (s *EntryService) List(ctx context.Context, f core.ListFilter) ([]core.Entry, error) {
	entries, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Summary returns the totals, from cache when fresh.
func (s *EntryService) Summary(ctx context.Context) (core.Summary, error) {
	if s.summaries == nil {
		return s.summarize(ctx)
	}
	if sum, ok := s.summaries.Get(summaryKey); ok {
		return sum, nil
	}

	gen := s.generation.Load()
	sum, err := s.summarize(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	if s.generation.Load() == gen {
		s.summaries.Set(summaryKey, sum)
	}
	return sum, nil
}

func (s *EntryService) summarize(ctx context.Context) (core.Summary, error) {
	sum, err := s.store.Summarize(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return sum, nil
}

// Ping checks the store.
func (s *EntryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Subscribe hands out a notification channel. It fails when no bus is wired.
func (s *EntryService) Subscribe(ctx context.Context) (<-chan notify.Event, error) {
	if s.bus == nil {
		return nil, errors.New("no notification bus configured")
	}
	return s.bus.Subscribe(ctx)
}

// HasBus reports whether notifications are available.
func (s *EntryService) HasBus() bool { return s.bus != nil }

// WatchInvalidations drops the cached summary whenever any process publishes
// a change. It returns when ctx ends or the bus closes.
func (s *EntryService) WatchInvalidations(ctx context.Context) error {
	if s.bus == nil || s.summaries == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	events, err := s.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe for invalidations: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == notify.SummaryUpdated {
				s.invalidate()
			}
		}
	}
}

func (s *EntryService) invalidate() {
	s.generation.Add(1)
	s.invalidations.Add(1)
	if s.summaries != nil {
		s.summaries.Delete(summaryKey)
	}
}

// changed invalidates and publishes after a successful mutation. A publish
// failure is logged and counted but never surfaces to the caller.
func (s *EntryService) changed(ctx context.Context, reason string, id int64) {
	s.invalidate()
	if s.bus == nil {
		return
	}
	ev := notify.NewSummaryUpdated(reason, id)
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.publishFailures.Add(1)
		slog.ErrorContext(ctx, "Failed to publish change notification",
			"reason", reason,
			"entry_id", id,
			"error", err)
	}
}

func (s *EntryService) Stats() Stats {
	st := Stats{
		Creates:         s.creates.Load(),
		Updates:         s.updates.Load(),
		Deletes:         s.deletes.Load(),
		Clears:          s.clears.Load(),
		PublishFailures: s.publishFailures.Load(),
		Invalidations:   s.invalidations.Load(),
	}
	if s.summaries != nil {
		st.Cache = s.summaries.Stats()
	}
	if bs, ok := s.bus.(busStats); ok {
		st.EventsPublished, st.EventsDropped = bs.Stats()
	}
	return st
}

// Close closes the bus and the store.
func (s *EntryService) Close() error {
	var errs []error
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bus: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %w", errors.Join(errs...))
	}
	return nil
}

package client

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/aggregate"
	"tracker/internal/core"
	"tracker/internal/notify"
)

// API is the subset of Client the Tracker drives.
type API interface {
	List(ctx context.Context, f core.ListFilter) ([]core.Entry, error)
	Summary(ctx context.Context) (core.Summary, error)
	Create(ctx context.Context, e core.NewEntry) (core.Entry, error)
	Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Clear(ctx context.Context) error
	Events(ctx context.Context) (<-chan notify.Event, error)
}

var _ API = (*Client)(nil)

// Tracker keeps a Store in step with the API. Every successful mutation
// reloads the store; the server announces the change to other views.
type Tracker struct {
	api   API
	store *Store
	now   func() time.Time
}

func NewTracker(api API) *Tracker {
	return &Tracker{api: api, store: NewStore(), now: time.Now}
}

func (t *Tracker) Store() *Store { return t.store }

// Load fetches entries and summary together.
func (t *Tracker) Load(ctx context.Context) error {
	rev := t.store.Begin()

	var entries []core.Entry
	var summary core.Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = t.api.List(gctx, core.ListFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = t.api.Summary(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	t.store.Apply(rev, entries, summary)
	return nil
}

func (t *Tracker) Create(ctx context.Context, e core.NewEntry) (core.Entry, error) {
	entry, err := t.api.Create(ctx, e)
	if err != nil {
		return core.Entry{}, err
	}
	return entry, t.Load(ctx)
}

func (t *Tracker) Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error) {
	entry, err := t.api.Update(ctx, id, p)
	if err != nil {
		return core.Entry{}, err
	}
	return entry, t.Load(ctx)
}

func (t *Tracker) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := t.api.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	return deleted, t.Load(ctx)
}

func (t *Tracker) Clear(ctx context.Context) error {
	if err := t.api.Clear(ctx); err != nil {
		return err
	}
	return t.Load(ctx)
}

// Dashboard derives the overview from the loaded entries.
func (t *Tracker) Dashboard() aggregate.Dashboard {
	return aggregate.Build(t.store.Entries(), t.now())
}

// History is the filtered entry list for the history view.
func (t *Tracker) History(pillarKey string, preset aggregate.Preset) []core.Entry {
	return aggregate.Filter(t.store.Entries(), pillarKey, preset, t.now())
}

// Watch reloads on every change notification and calls onChange with the
// fresh dashboard. A failed reload is reported through onError and the
// watch continues. It returns when ctx ends or the stream closes.
func (t *Tracker) Watch(ctx context.Context, onChange func(aggregate.Dashboard), onError func(error)) error {
	events, err := t.api.Events(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return t.watch(ctx, events, onChange, onError)
}

func (t *Tracker) watch(ctx context.Context, events <-chan notify.Event, onChange func(aggregate.Dashboard), onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("event stream closed")
			}
			if ev.Type != notify.SummaryUpdated {
				continue
			}
			if err := t.Load(ctx); err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onChange != nil {
				onChange(t.Dashboard())
			}
		}
	}
}

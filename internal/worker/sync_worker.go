package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tracker/internal/core"
	"tracker/internal/notify"
	"tracker/internal/sheets"
)

// DefaultDebounce is how long the worker waits after a change before
// rewriting the sheet, so a burst of mutations costs one write.
const DefaultDebounce = 2 * time.Second

// Source is where snapshots are read from: a store or the HTTP API.
type Source interface {
	List(ctx context.Context, f core.ListFilter) ([]core.Entry, error)
	Summarize(ctx context.Context) (core.Summary, error)
}

// SyncWorker rewrites the spreadsheet mirror from a Source, on every change
// notification and on a fixed interval as a backstop for missed messages.
type SyncWorker struct {
	source   Source
	sheets   sheets.SnapshotWriter
	events   notify.Subscriber
	interval time.Duration
	debounce time.Duration
	now      func() time.Time

	syncs    atomic.Int64
	failures atomic.Int64
}

type Options struct {
	// Events may be nil, leaving only the interval.
	Events   notify.Subscriber
	Interval time.Duration
	Debounce time.Duration
}

func NewSyncWorker(source Source, writer sheets.SnapshotWriter, opts Options) *SyncWorker {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &SyncWorker{
		source:   source,
		sheets:   writer,
		events:   opts.Events,
		interval: opts.Interval,
		debounce: opts.Debounce,
		now:      time.Now,
	}
}

// SyncOnce writes one snapshot.
func (w *SyncWorker) SyncOnce(ctx context.Context) error {
	entries, err := w.source.List(ctx, core.ListFilter{})
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("list entries: %w", err)
	}
	summary, err := w.source.Summarize(ctx)
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("summarize: %w", err)
	}

	snap := sheets.Snapshot{Entries: entries, Summary: summary, GeneratedAt: w.now().UTC()}
	if err := w.sheets.WriteSnapshot(ctx, snap); err != nil {
		w.failures.Add(1)
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.syncs.Add(1)

	slog.InfoContext(ctx, "Spreadsheet mirror updated",
		"entries", len(entries),
		"time_total", summary.TimeTotal,
		"money_total", summary.MoneyTotal)
	return nil
}

// Run syncs at startup and then until ctx ends. A failed sync is logged and
// retried on the next trigger.
func (w *SyncWorker) Run(ctx context.Context) error {
	w.trySync(ctx, "startup")

	var events <-chan notify.Event
	if w.events != nil {
		ch, err := w.events.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe for changes: %w", err)
		}
		events = ch
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// pending fires once the debounce window after the first unsynced change
	// closes. Later changes in the window ride along.
	var pending <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("notification bus closed")
			}
			if ev.Type != notify.SummaryUpdated || pending != nil {
				continue
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C
		case <-pending:
			pending = nil
			timer = nil
			w.trySync(ctx, "change")
		case <-tick:
			w.trySync(ctx, "interval")
		}
	}
}

func (w *SyncWorker) trySync(ctx context.Context, trigger string) {
	if err := w.SyncOnce(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Spreadsheet sync failed", "trigger", trigger, "error", err)
	}
}

// Stats reports successful and failed syncs.
func (w *SyncWorker) Stats() (syncs, failures int64) {
	return w.syncs.Load(), w.failures.Load()
}

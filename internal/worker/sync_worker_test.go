package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/core"
	"tracker/internal/notify"
	sheetsmem "tracker/internal/sheets/memory"
	"tracker/internal/storage/memory"
)

func seed(t *testing.T, store *memory.Store, hours ...float64) {
	t.Helper()
	for _, h := range hours {
		_, err := store.Insert(context.Background(), core.NewEntry{
			Pillar: "HR Operations", Task: "Payroll", TimeSaved: h, Date: core.NewDate(2025, 2, 1),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSyncOnce(t *testing.T) {
	store := memory.New()
	seed(t, store, 2, 3.5)
	out := sheetsmem.New()
	w := NewSyncWorker(store, out, Options{})

	if err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	snap, rows := out.Last()
	if len(snap.Entries) != 2 || snap.Summary.TimeTotal != 5.5 {
		t.Fatalf("snapshot %+v", snap)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if snap.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt not set")
	}
}

func TestSyncOnceWriteFailure(t *testing.T) {
	out := sheetsmem.New()
	out.FailWith(errors.New("quota"))
	w := NewSyncWorker(memory.New(), out, Options{})

	if err := w.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if syncs, failures := w.Stats(); syncs != 0 || failures != 1 {
		t.Fatalf("stats syncs=%d failures=%d", syncs, failures)
	}
}

func TestRunCoalescesChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	bus := notify.NewBroker("", 8)
	defer bus.Close()
	out := sheetsmem.New()
	w := NewSyncWorker(store, out, Options{Events: bus, Debounce: 50 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, "startup sync", func() bool { return out.Writes() == 1 })
	waitFor(t, "subscription", func() bool { return bus.Subscribers() == 1 })

	seed(t, store, 1, 2, 3)
	for i := 0; i < 3; i++ {
		_ = bus.Publish(ctx, notify.NewSummaryUpdated(notify.ReasonCreate, int64(i+1)))
	}

	waitFor(t, "change sync", func() bool { return out.Writes() == 2 })
	time.Sleep(150 * time.Millisecond)
	if out.Writes() != 2 {
		t.Fatalf("burst should produce one write, got %d", out.Writes())
	}
	snap, _ := out.Last()
	if len(snap.Entries) != 3 {
		t.Fatalf("expected 3 entries mirrored, got %d", len(snap.Entries))
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestRunOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := sheetsmem.New()
	w := NewSyncWorker(memory.New(), out, Options{Interval: 20 * time.Millisecond})
	go w.Run(ctx)

	waitFor(t, "interval syncs", func() bool { return out.Writes() >= 3 })
}

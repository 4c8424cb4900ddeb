package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/core"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/notify"
	"tracker/internal/services"
	"tracker/internal/storage/memory"
)

func newAPI(t *testing.T, bus notify.Bus) *Client {
	t.Helper()
	svc := services.NewEntryService(memory.New(), bus, services.Options{})
	srv, err := apphttp.NewServer(":0", svc, apphttp.Options{Logger: applog.New(applog.Config{Output: io.Discard})})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		ts.Close()
		_ = svc.Close()
	})
	c, err := New(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func entry(pillar string, hours, money float64, d core.Date) core.NewEntry {
	return core.NewEntry{Pillar: pillar, Task: "Automated " + pillar, TimeSaved: hours, MoneySaved: money, Date: d}
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t, nil)

	if err := c.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	created, err := c.Create(ctx, entry("HR Operations", 5, 100, core.NewDate(2025, 3, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.Pillar != "HR Operations" {
		t.Fatalf("created %+v", created)
	}
	if _, err := c.Create(ctx, entry("Finance", 2, 0, core.NewDate(2025, 4, 1))); err != nil {
		t.Fatal(err)
	}

	sum, err := c.Summary(ctx)
	if err != nil || sum.TimeTotal != 7 || sum.MoneyTotal != 100 {
		t.Fatalf("summary %+v %v", sum, err)
	}

	list, err := c.List(ctx, core.ListFilter{Since: core.NewDate(2025, 3, 15)})
	if err != nil || len(list) != 1 || list[0].Pillar != "Finance" {
		t.Fatalf("filtered list %+v %v", list, err)
	}

	money := 250.0
	updated, err := c.Update(ctx, created.ID, core.EntryPatch{MoneySaved: &money})
	if err != nil || updated.MoneySaved != 250 || updated.TimeSaved != 5 {
		t.Fatalf("update %+v %v", updated, err)
	}

	if ok, err := c.Delete(ctx, created.ID); err != nil || !ok {
		t.Fatalf("delete %v %v", ok, err)
	}
	if ok, err := c.Delete(ctx, created.ID); err != nil || ok {
		t.Fatalf("second delete %v %v", ok, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if list, _ := c.List(ctx, core.ListFilter{}); len(list) != 0 {
		t.Fatalf("clear left %d entries", len(list))
	}
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t, nil)

	task := "x"
	_, err := c.Update(ctx, 999, core.EntryPatch{Task: &task})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatal("404 should unwrap to ErrNotFound")
	}
	if _, err := c.Update(ctx, 1, core.EntryPatch{}); !errors.Is(err, core.ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
	if _, err := c.Create(ctx, core.NewEntry{Pillar: "Finance"}); !errors.Is(err, core.ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	_, err = c.Events(ctx)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without bus, got %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://host", "::bad"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) should fail", raw)
		}
	}
}

func TestUnreachableAPI(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, _ := New(addr)
	tr := NewTracker(c)
	if err := tr.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if tr.Store().Loaded() {
		t.Fatal("store must stay unloaded")
	}
}

func TestStoreIgnoresStaleRefresh(t *testing.T) {
	s := NewStore()
	older := s.Begin()
	newer := s.Begin()

	if !s.Apply(newer, []core.Entry{{ID: 2}}, core.Summary{TimeTotal: 2}) {
		t.Fatal("newer refresh rejected")
	}
	if s.Apply(older, []core.Entry{{ID: 1}}, core.Summary{TimeTotal: 1}) {
		t.Fatal("stale refresh applied")
	}
	if got := s.Entries(); len(got) != 1 || got[0].ID != 2 || s.Summary().TimeTotal != 2 {
		t.Fatalf("store holds %+v", got)
	}
}

func TestTrackerDashboardAndHistory(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newAPI(t, nil))
	tr.now = func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) }

	if _, err := tr.Create(ctx, entry("HR Operations", 10, 1000, core.NewDate(2025, 3, 5))); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Create(ctx, entry("Finance", 5, 0, core.NewDate(2025, 2, 5))); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Create(ctx, entry("Finance", 1, 0, core.NewDate(2024, 6, 1))); err != nil {
		t.Fatal(err)
	}

	d := tr.Dashboard()
	if d.Totals.Time != 16 || d.Totals.Pillars != 2 {
		t.Fatalf("totals %+v", d.Totals)
	}
	if d.Month.TimeChange != 100 {
		t.Fatalf("time change %d", d.Month.TimeChange)
	}
	if got := tr.History("finance", aggregate.PresetThisYear); len(got) != 1 {
		t.Fatalf("history %+v", got)
	}

	if err := tr.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if len(tr.Store().Entries()) != 0 {
		t.Fatal("clear did not reload")
	}
}

func TestTrackerWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := notify.NewBroker("", 8)
	api := newAPI(t, bus)
	watcher := NewTracker(api)
	writer := NewTracker(api)

	changes := make(chan aggregate.Dashboard, 4)
	subscribed := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		events, err := api.Events(ctx)
		if err != nil {
			done <- err
			return
		}
		close(subscribed)
		done <- watcher.watch(ctx, events, func(d aggregate.Dashboard) { changes <- d }, nil)
	}()

	select {
	case <-subscribed:
	case err := <-done:
		t.Fatalf("subscribe: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription timed out")
	}

	if _, err := writer.Create(context.Background(), entry("Finance", 3, 30, core.NewDate(2025, 1, 1))); err != nil {
		t.Fatal(err)
	}
	select {
	case d := <-changes:
		if d.Totals.Time != 3 {
			t.Fatalf("watcher saw %+v", d.Totals)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("watch returned %v", err)
	}
}

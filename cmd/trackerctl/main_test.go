package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tracker/internal/aggregate"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/storage/memory"
)

func newAPI(t *testing.T) string {
	t.Helper()
	svc := services.NewEntryService(memory.New(), nil, services.Options{})
	srv, err := apphttp.NewServer(":0", svc, apphttp.Options{Logger: applog.New(applog.Config{Output: io.Discard})})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		ts.Close()
	})
	return ts.URL
}

func runCmd(t *testing.T, api string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out, api)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	api := newAPI(t)

	out, err := runCmd(t, api, "add", "-pillar", "hr-operations", "-task", "Payroll", "-time", "5", "-money", "1234", "-date", "2025-03-01")
	if err != nil || !strings.Contains(out, "Created entry 1: Payroll, 5h saved.") {
		t.Fatalf("add: %q %v", out, err)
	}

	out, err = runCmd(t, api, "list")
	if err != nil || !strings.Contains(out, "HR Operations") || !strings.Contains(out, "$1,234") {
		t.Fatalf("list: %q %v", out, err)
	}

	out, err = runCmd(t, api, "update", "1", "-time", "7.5")
	if err != nil || !strings.Contains(out, "Updated entry 1.") {
		t.Fatalf("update: %q %v", out, err)
	}

	out, err = runCmd(t, api, "summary")
	if err != nil || !strings.Contains(out, "Time saved: 7.5h/month") {
		t.Fatalf("summary: %q %v", out, err)
	}

	out, err = runCmd(t, api, "dashboard")
	if err != nil || !strings.Contains(out, "Total Money Saved") || !strings.Contains(out, "Learning & Development") {
		t.Fatalf("dashboard: %q %v", out, err)
	}

	if _, err := runCmd(t, api, "update", "1"); err == nil {
		t.Fatal("update without fields should fail")
	}
	if _, err := runCmd(t, api, "update", "99", "-task", "x"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("update missing: %v", err)
	}
	if _, err := runCmd(t, api, "clear"); err == nil {
		t.Fatal("clear without -yes should fail")
	}

	out, err = runCmd(t, api, "delete", "1")
	if err != nil || !strings.Contains(out, "Deleted entry 1.") {
		t.Fatalf("delete: %q %v", out, err)
	}
	out, _ = runCmd(t, api, "delete", "1")
	if !strings.Contains(out, "did not exist") {
		t.Fatalf("second delete: %q", out)
	}

	if out, err = runCmd(t, api, "clear", "-yes"); err != nil || !strings.Contains(out, "Cleared") {
		t.Fatalf("clear: %q %v", out, err)
	}
}

func TestUnreachableAPIFailsLoudly(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	out, err := runCmd(t, addr, "dashboard")
	if err == nil || !strings.Contains(err.Error(), "cannot load data") {
		t.Fatalf("expected load error, got %v", err)
	}
	if strings.Contains(out, "AI Impact Dashboard") {
		t.Fatal("must not render an empty dashboard")
	}
}

func TestUsageErrors(t *testing.T) {
	if _, err := runCmd(t, "http://localhost:1"); err == nil {
		t.Fatal("missing command should fail")
	}
	if _, err := runCmd(t, "http://localhost:1", "frobnicate"); err == nil {
		t.Fatal("unknown command should fail")
	}
	if _, err := runCmd(t, "http://localhost:1", "delete", "abc"); err == nil {
		t.Fatal("bad id should fail")
	}
	if _, err := runCmd(t, "http://localhost:1", "list", "-filter", "yesterday"); err == nil {
		t.Fatal("bad filter should fail")
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0}, {50, 10}, {100, 20}, {140, 20},
	}
	for _, tt := range tests {
		got := strings.Count(bar(tt.percent), "█")
		if got != tt.filled {
			t.Errorf("bar(%v) filled %d, want %d", tt.percent, got, tt.filled)
		}
	}
}

func TestRenderCard(t *testing.T) {
	var buf bytes.Buffer
	renderCard(&buf, "Total Time Saved", "10h/month", aggregate.Trend(aggregate.TrendTime, 25, 10))
	if got := buf.String(); !strings.Contains(got, "▲ +25% this month") {
		t.Fatalf("card %q", got)
	}
}

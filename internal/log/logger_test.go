package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	l.WithComponent(ComponentStorage).Info("opened", "path", "x.db")
	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=storage") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level: %q", buf.String())
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(
		ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "handled")
		}))))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	out := buf.String()
	if !strings.Contains(out, "request_id=req_abc") || !strings.Contains(out, "component=http") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf}))

	sl.LogEntryChanged(context.Background(), OpCreate, 7, "HR Operations", 5, 100)
	if !strings.Contains(buf.String(), "entry_id=7") || !strings.Contains(buf.String(), "component=entries") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "write failed", errors.New("disk full"), "DB_WRITE_FAILED", ErrorTypeDatabase, OpCreate)
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error_code=DB_WRITE_FAILED") || !strings.Contains(out, "component=app") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	r := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	sl.LogHTTPEnd(context.Background(), r, "req_1", 404, 3, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("4xx should log at warn: %q", buf.String())
	}
}

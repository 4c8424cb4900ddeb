package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

const healthTimeout = 5 * time.Second

// handleHealth pings the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Health check failed", applog.FieldError, err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleLiveness answers without touching dependencies.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpSummary, err, core.CodeDBSummary)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type listResponse struct {
	Entries []core.Entry `json:"entries"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		s.fail(w, r, applog.OpList, err, core.CodeDBRead)
		return
	}
	entries, err := s.svc.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, applog.OpList, err, core.CodeDBRead)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	writeJSON(w, http.StatusOK, listResponse{Entries: entries})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	fields, err := readObject(w, r)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err, core.CodeDBWrite)
		return
	}
	ne, err := parseNewEntry(fields)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err, core.CodeDBWrite)
		return
	}
	entry, err := s.svc.Create(r.Context(), ne)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err, core.CodeDBWrite)
		return
	}
	s.events.LogEntryChanged(r.Context(), applog.OpCreate, entry.ID, entry.Pillar, entry.TimeSaved, entry.MoneySaved)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err, core.CodeDBUpdate)
		return
	}
	fields, err := readObject(w, r)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err, core.CodeDBUpdate)
		return
	}
	patch, err := parsePatch(fields)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err, core.CodeDBUpdate)
		return
	}
	entry, err := s.svc.Update(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err, core.CodeDBUpdate)
		return
	}
	s.events.LogEntryChanged(r.Context(), applog.OpUpdate, entry.ID, entry.Pillar, entry.TimeSaved, entry.MoneySaved)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, applog.OpDelete, err, core.CodeDBDelete)
		return
	}
	deleted, err := s.svc.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, applog.OpDelete, err, core.CodeDBDelete)
		return
	}
	if deleted {
		s.events.LogEntryChanged(r.Context(), applog.OpDelete, id, "", 0, 0)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleClearEntries(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Clear(r.Context()); err != nil {
		s.fail(w, r, applog.OpClear, err, core.CodeDBClear)
		return
	}
	s.logger.InfoContext(r.Context(), "Entries cleared", applog.FieldOperation, applog.OpClear)
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.resolver.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: core.CodeRateLimited})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	tm := s.trace.GetMetrics()
	st := s.svc.Stats()

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", tm.TotalRequests)
	counter("http_client_errors_total", "Responses with a 4xx status", tm.ClientErrors)
	counter("http_server_errors_total", "Responses with a 5xx status", tm.ServerErrors)
	gauge("http_response_time_avg_microseconds", "Mean response time", tm.AverageResponseTime)

	fmt.Fprintf(w, "# HELP entry_mutations_total Successful entry mutations\n# TYPE entry_mutations_total counter\n")
	fmt.Fprintf(w, "entry_mutations_total{op=\"create\"} %d\n", st.Creates)
	fmt.Fprintf(w, "entry_mutations_total{op=\"update\"} %d\n", st.Updates)
	fmt.Fprintf(w, "entry_mutations_total{op=\"delete\"} %d\n", st.Deletes)
	fmt.Fprintf(w, "entry_mutations_total{op=\"clear\"} %d\n\n", st.Clears)

	counter("notify_publish_failures_total", "Change notifications that failed to publish", st.PublishFailures)
	counter("notify_events_published_total", "Events published on the local broker", st.EventsPublished)
	counter("notify_events_dropped_total", "Events dropped on full subscriber buffers", st.EventsDropped)
	counter("summary_cache_invalidations_total", "Summary cache invalidations", st.Invalidations)
	counter("summary_cache_hits_total", "Summary cache hits", st.Cache.Hits)
	counter("summary_cache_misses_total", "Summary cache misses", st.Cache.Misses)
	gauge("websocket_clients", "Connected event subscribers", s.wsClients.Load())

	if s.limiter != nil {
		rm := s.limiter.GetMetrics()
		counter("rate_limit_hits_total", "Requests rejected by the rate limiter", rm.TotalHits)
		gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rm.ClientCount)
	}
	gauge("uptime_seconds", "Application uptime in seconds", int64(time.Since(s.startedAt).Seconds()))
}

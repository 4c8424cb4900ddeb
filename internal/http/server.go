package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"tracker/internal/core"
	applog "tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
)

// Options configures the HTTP surface around the entry service.
type Options struct {
	Logger             *applog.Logger
	CORSAllowOrigin    string
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	svc      *services.EntryService
	logger   *applog.Logger
	events   *applog.StructuredLogger
	trace    *trace.Middleware
	limiter  *ratelimit.Limiter
	resolver *security.IPResolver
	upgrader websocket.Upgrader

	startedAt time.Time
	wsClients atomic.Int64

	// base is cancelled on Shutdown so hijacked websocket streams end too.
	base         context.Context
	cancelBase   context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer builds the router. The caller sets timeouts and listens.
func NewServer(addr string, svc *services.EntryService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	resolver, err := security.NewIPResolver(opts.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	allowOrigin := opts.CORSAllowOrigin
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	cors := security.DefaultCORSConfig(allowOrigin)

	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		svc:        svc,
		logger:     logger,
		events:     applog.NewStructuredLogger(logger),
		trace:      trace.NewMiddleware(logger, resolver.ExtractClientIP),
		resolver:   resolver,
		startedAt:  time.Now(),
		base:       base,
		cancelBase: cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cors),
		},
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(applog.Middleware(logger))
	r.Use(s.trace.Middleware)
	r.Use(applog.RequestIDMiddleware(trace.FromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(security.CORS(cors))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: core.CodeNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "METHOD_NOT_ALLOWED"})
	})

	r.Get("/healthz", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(resolver.ExtractClientIP, ratelimit.MutatingOnly, s.handleRateLimited))
		}
		r.Get("/health", s.handleHealth)
		r.Get("/summary", s.handleSummary)
		r.Get("/events", s.handleEvents)

		r.Get("/entries", s.handleListEntries)
		r.Post("/entries", s.handleCreateEntry)
		r.Delete("/entries", s.handleClearEntries)
		r.Put("/entries/{id}", s.handleUpdateEntry)
		r.Delete("/entries/{id}", s.handleDeleteEntry)
	})

	s.Server = http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s, nil
}

func originChecker(cfg security.CORSConfig) func(*http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range splitOrigins(cfg.AllowOrigin) {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		return origin == "" || allowed[origin]
	}
}

// Shutdown stops background work, ends websocket streams and drains requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cancelBase()
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics exposes the request counters for tests and the metrics page.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

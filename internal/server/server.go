package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/pagepilot/internal/db"
	"github.com/ziadkadry99/pagepilot/internal/ledger"
	"github.com/ziadkadry99/pagepilot/internal/logging"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
	"github.com/ziadkadry99/pagepilot/internal/scheduler"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool          // allow all CORS origins
	RequestTimeout time.Duration // bounds every non-WebSocket request
}

// Server is the pagepilot HTTP API.
type Server struct {
	cfg        Config
	db         *db.DB
	ledger     *ledger.Store
	resolver   *resolver.Resolver
	sched      *scheduler.Scheduler
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server wired to the given components. Any of ledger,
// resolver and sched may be nil, in which case their routes are omitted.
func New(cfg Config, database *db.DB, store *ledger.Store, res *resolver.Resolver, sched *scheduler.Scheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	s := &Server{
		cfg:      cfg,
		db:       database,
		ledger:   store,
		resolver: res,
		sched:    sched,
		logger:   logger,
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger, 0))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		if s.resolver != nil {
			resolver.RegisterRoutes(r, s.resolver)
		}
		if s.ledger != nil {
			ledger.RegisterRoutes(r, s.ledger)
		}
		if s.sched != nil {
			r.Get("/api/scheduler", s.handleSchedulerStats)
		}
	})

	if s.resolver != nil {
		resolver.RegisterLive(r, s.resolver)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			status, code = "database unavailable", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func (s *Server) handleSchedulerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Stats())
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port and blocks until the
// server stops. A graceful Shutdown makes it return nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("pagepilot server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

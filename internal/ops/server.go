// Package ops exposes a small operational HTTP surface next to the
// gateway connection: liveness and a status snapshot.
package ops

import (
	"context"
	"errors"
	"fmt"
	json "github.com/go-json-experiment/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/membertagger/member-tagger/internal/store"
)

// Server serves /healthz and /statusz on a dedicated listener.
type Server struct {
	http    *http.Server
	store   *store.Store
	logger  *slog.Logger
	started time.Time
	version string
}

// Status is the /statusz response body.
type Status struct {
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	UsersTracked  int    `json:"users_tracked"`
	NotifyConfigs int    `json:"notify_configs"`
}

func New(addr string, st *store.Store, version string, logger *slog.Logger) *Server {
	s := &Server{
		store:   st,
		logger:  logger,
		started: time.Now(),
		version: version,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/statusz", s.handleStatusz)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("ops listener started", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops listener: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatusz(w http.ResponseWriter, r *http.Request) {
	status := Status{
		Version:       s.version,
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		UsersTracked:  s.store.Count(r.Context(), store.UsersCollection),
		NotifyConfigs: s.store.Count(r.Context(), store.NotifyCollection),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.MarshalWrite(w, status); err != nil {
		s.logger.Error("status encode failed", "error", err)
	}
}

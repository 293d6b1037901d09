// Package server exposes a navigation graph over HTTP for interactive
// viewers: build a random graph, fetch it as GeoJSON with the last search's
// annotations, and request routes between picked points.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"navgraph"
	"navgraph/internal/construct"
)

// Server owns one graph and serializes access to it. Searches write node
// annotations, so they hold the write lock like any other mutation.
type Server struct {
	mu         sync.RWMutex
	graph      *navgraph.Graph
	params     construct.Params
	pickRadius float32
	logger     *log.Logger
}

// New creates a server without a graph. defaults seeds /graph/build requests.
func New(defaults construct.Params, pickRadius float64, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		params:     defaults,
		pickRadius: float32(pickRadius),
		logger:     logger,
	}
}

// SetGraph replaces the served graph.
func (s *Server) SetGraph(g *navgraph.Graph) {
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()
}

// installGraph stores g unless a graph is already served and force is unset.
// Builds run unlocked, so the check is repeated here under the write lock.
func (s *Server) installGraph(g *navgraph.Graph, force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil && !force {
		return false
	}
	s.graph = g
	return true
}

// Graph returns the served graph, or nil if none was built yet.
func (s *Server) Graph() *navgraph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(
		middleware.SetHeader("Access-Control-Allow-Origin", "*"),
		middleware.SetHeader("Access-Control-Allow-Methods", "POST, GET, OPTIONS"),
		middleware.SetHeader("Access-Control-Allow-Headers", "Content-Type"),
	)
	r.Options("/*", s.preflight)

	r.Post("/graph/build", s.buildGraphHandler)
	r.Get("/graph", s.getGraphHandler)
	r.Post("/route", s.routeHandler)
	r.Get("/health", s.healthHandler)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// preflight answers CORS preflight requests for any route.
func (s *Server) preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// Package api implements the headless control-and-health HTTP surface
// described in spec.md §6: an action-dispatch control API plus a bare
// health endpoint, replacing the teacher's WebSocket-push dashboard.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"polymarket-quoter/internal/engine"
)

// Server runs the control API + health HTTP server.
type Server struct {
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// NewServer builds a Server bound to eng, listening on port with CORS
// restricted to allowedOrigins (empty means same-host/localhost only).
func NewServer(eng *engine.Engine, port int, allowedOrigins []string, logger *slog.Logger) *Server {
	handlers := NewHandlers(eng, allowedOrigins, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.HandleRoot)
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/action", handlers.HandleAction)
	mux.Handle("/metrics", promhttp.HandlerFor(eng.Metrics().Registry(), promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handlers: handlers,
		server:   httpServer,
		logger:   logger.With("component", "api-server"),
	}
}

// Start blocks serving HTTP until Stop is called or the server errors.
func (s *Server) Start() error {
	s.logger.Info("control server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.logger.Info("stopping control server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Package httpapi exposes the feed service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
)

// NewRouter builds the chi router with the standard middleware stack
func NewRouter(cfg *config.Config, feed FeedService, log logger.Logger) http.Handler {
	h := NewHandlers(feed, cfg.Feed)

	r := chi.NewRouter()
	r.Use(middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/profile-feed", h.HandleProfileFeed)
	r.Get("/healthz", h.HandleHealth)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Server wraps the HTTP listener
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// NewServer creates a Server on cfg.Server.Addr
func NewServer(cfg *config.Config, feed FeedService, log logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      NewRouter(cfg, feed, log),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: log,
	}
}

// Start blocks serving requests until Stop is called
func (s *Server) Start() error {
	logger.LogComponentStart(s.logger, "http", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	defer logger.LogComponentStop(s.logger, "http", "shutdown")
	return s.httpServer.Shutdown(ctx)
}

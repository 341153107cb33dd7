package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"mixguard/internal/ai"
	"mixguard/internal/handlers"
	applog "mixguard/internal/log"
)

// Config captures the runtime configuration for the HTTP server. Database
// and Predictor may be nil: the endpoints degrade to their documented
// "unavailable" payloads rather than refusing to start.
type Config struct {
	Addr      string
	Database  *gorm.DB
	Predictor *ai.Predictor
}

// Server wraps an http.Server and exposes helpers for bootstrapping the
// interaction-checker API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"database", cfg.Database != nil,
		"predictor", cfg.Predictor != nil,
	)

	handlers.Configure(cfg.Database)
	handlers.ConfigureAI(cfg.Predictor)

	applog.Debug(context.Background(), "handler dependencies configured")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

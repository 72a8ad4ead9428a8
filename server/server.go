// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/tedrag/rag"
)

// QueryService is the part of rag.Service the HTTP layer depends on.
type QueryService interface {
	Answer(ctx context.Context, question string) (*rag.Answer, error)
	Stats() rag.Stats
}

var _ QueryService = (*rag.Service)(nil)

// Server serves the query API.
type Server struct {
	config  Config
	service QueryService
	router  *gin.Engine
	server  *http.Server
	mu      sync.Mutex
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMiddleware adds custom gin middlewares to the router
func WithMiddleware(middlewares ...gin.HandlerFunc) Option {
	return func(s *Server) {
		s.router.Use(middlewares...)
	}
}

// New creates a server for service.
func New(config Config, service QueryService, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, errors.New("query service required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	s := &Server{
		config:  config,
		service: service,
		router:  gin.New(),
		logger:  slog.Default(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.router.Use(loggingMiddleware(s.logger))

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.home)

	api := s.router.Group("/api")
	{
		api.GET("/stats", s.stats)
		api.POST("/prompt", s.prompt)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("server starting", "addr", ln.Addr().String(), "mode", s.config.Mode)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

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


// Package server exposes the query engine and the stored specification over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/specindex/search"
	"github.com/poiesic/specindex/storage"
)

var (
	// ErrEngineRequired is returned when no query engine is supplied.
	ErrEngineRequired = errors.New("query engine is required")

	// ErrSpecRepositoryRequired is returned when no spec repository is supplied.
	ErrSpecRepositoryRequired = errors.New("spec repository is required")
)

// Server is the HTTP API server.
type Server struct {
	router         chi.Router
	engine         *search.Engine
	specRepo       storage.SpecRepository
	queryLog       storage.QueryLogRepository
	addr           string
	requestTimeout time.Duration
	logger         *slog.Logger
	server         *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithAddr sets the listen address. Default is ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithRequestTimeout bounds each request. Default is two minutes.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return errors.New("request timeout must be positive")
		}
		s.requestTimeout = timeout
		return nil
	}
}

// WithQueryLog enables GET /api/v1/queries over repo.
func WithQueryLog(repo storage.QueryLogRepository) Option {
	return func(s *Server) error {
		s.queryLog = repo
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates and configures the HTTP server.
func NewServer(engine *search.Engine, specRepo storage.SpecRepository, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if specRepo == nil {
		return nil, ErrSpecRepositoryRequired
	}

	s := &Server{
		engine:         engine,
		specRepo:       specRepo,
		addr:           ":8080",
		requestTimeout: 2 * time.Minute,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/sections/{number}", s.handleGetSection)
		r.Get("/pay-items/{code}", s.handleGetPayItem)
		r.Get("/queries", s.handleRecentQueries)
	})

	s.router = r
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server and waits for pending query-log writes.
func (s *Server) Stop(ctx context.Context) error {
	defer s.engine.Wait()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

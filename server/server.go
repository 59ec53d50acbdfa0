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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/gutensearch/search"
	"github.com/poiesic/gutensearch/storage"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const shutdownTimeout = 10 * time.Second

// Server exposes book search over HTTP.
type Server struct {
	searcher          *search.Searcher
	bookRepository    storage.BookRepository
	passageRepository storage.PassageRepository
	metaRepository    storage.MetaRepository
	logger            *slog.Logger
}

// Option configures a Server during construction.
type Option func(*Server) error

// WithLogger sets the logger used for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// NewServer creates an HTTP server over the given searcher and repositories.
func NewServer(
	searcher *search.Searcher,
	bookRepository storage.BookRepository,
	passageRepository storage.PassageRepository,
	metaRepository storage.MetaRepository,
	opts ...Option,
) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if bookRepository == nil {
		return nil, ErrBookRepositoryRequired
	}
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if metaRepository == nil {
		return nil, ErrMetaRepositoryRequired
	}

	server := &Server{
		searcher:          searcher,
		bookRepository:    bookRepository,
		passageRepository: passageRepository,
		metaRepository:    metaRepository,
		logger:            slog.Default().With("component", "server"),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, err
		}
	}

	return server, nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())

	api := router.Group("/api/aisearch")
	api.GET("/search", s.handleSearch)
	api.GET("/status", s.handleStatus)

	return router
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

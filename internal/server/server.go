// Package server is the reference remote todo store: a JSON HTTP API over
// SQLite that the tend client talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/colonyops/tend/internal/core/todo"
)

const shutdownTimeout = 5 * time.Second

// Store is the authoritative todo storage behind the API.
type Store interface {
	todo.Remote
	CreateWithPriority(ctx context.Context, title string, priority int) (todo.Todo, error)
	ArchiveCompletedCount(ctx context.Context) (int64, error)
}

// Server serves the todo API.
type Server struct {
	store  Store
	log    zerolog.Logger
	router *gin.Engine
}

// New creates a Server with every route registered. log is used as given;
// pass a logging.Component logger to tag entries.
func New(store Store, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:  store,
		log:    log,
		router: gin.New(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(Logger(s.log))
	_ = s.router.SetTrustedProxies(nil)

	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server starting")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Package server runs the navigation guard as an HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/guard"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/server/handler"
	"github.com/jobvyne/navguard/internal/social"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server serves the guard over HTTP until its context is cancelled.
type Server struct {
	config  *config.ServerConfig
	handler *handler.Handler
	tracker *guard.PageViewTracker
}

// NewServer creates a server for the given handler. Pending page views are
// flushed from tracker on shutdown.
func NewServer(cfg *config.ServerConfig, h *handler.Handler, tracker *guard.PageViewTracker) *Server {
	return &Server{config: cfg, handler: h, tracker: tracker}
}

// Addr is the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// Start listens on the configured address.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler.CreateHTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server", zap.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if s.tracker != nil {
			if err := s.tracker.Flush(shutdownCtx); err != nil {
				logger.Warn("pending page views dropped", zap.Error(err))
			}
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// Module provides the HTTP server and its handler
var Module = fx.Module("server",
	fx.Provide(
		social.NewService,
		handler.NewHandler,
		NewServer,
	),
)

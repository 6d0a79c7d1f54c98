package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

// Server runs the HTTP API and the WebSocket hub
type Server struct {
	logger  *zap.Logger
	addr    string
	handler http.Handler
	hub     *Hub

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a server listening on cfg's address
func NewServer(logger *zap.Logger, cfg domain.Config, handler http.Handler, hub *Hub) *Server {
	return &Server{
		logger:  logger,
		addr:    cfg.GetListenAddr(),
		handler: handler,
		hub:     hub,
	}
}

// Start binds the listener and serves in the background.
// It returns immediately (non-blocking); a bind failure is returned.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	hubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.hub.Run(hubCtx)
	}()
	go func(srv *http.Server) {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}(s.srv)

	s.logger.Info("API server listening",
		zap.String("http", "http://"+ln.Addr().String()),
		zap.String("ws", "ws://"+ln.Addr().String()+"/ws"))
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the HTTP server down and disconnects WebSocket clients
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, cancel := s.srv, s.cancel
	s.srv, s.cancel, s.listener = nil, nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("API server stopping...")

	// hijacked WebSocket connections are not tracked by Shutdown; the hub closes them
	err := srv.Shutdown(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, fmt.Errorf("waiting for server goroutines: %w", ctx.Err()))
	}

	return err
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"secdb/src/directors"
	"secdb/src/settings"

	"go.uber.org/zap"
)

// Server exposes the document store over HTTP.
type Server struct {
	Host     string
	Port     int
	Listener net.Listener

	services   *directors.ServiceManager
	httpServer *http.Server
	logger     *zap.SugaredLogger
	mu         sync.Mutex
	running    bool
	done       chan struct{}
}

// NewServer wires the HTTP handlers to services. The server does not own
// services; callers close them after Shutdown.
func NewServer(config *settings.Arguments, services *directors.ServiceManager, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		Host:     config.Host,
		Port:     config.Port,
		services: services,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.Desugar()),
	}
	return s
}

// Handler returns the HTTP handler, for mounting in tests or another mux.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for incoming connections
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	s.Listener = listener
	s.running = true
	s.done = make(chan struct{})

	s.logger.Infow("secdb server listening", "addr", listener.Addr().String(), "auth", s.services.UserService.Enabled())

	go func(done chan struct{}) {
		defer close(done)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("Server stopped unexpectedly", "error", err)
		}
	}(s.done)

	return nil
}

// Addr is the bound listen address, useful when Port was 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Listener == nil {
		return ""
	}
	return s.Listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.done
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)
	<-done

	s.logger.Info("Server shutdown complete")
	return err
}

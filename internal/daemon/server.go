package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hfarah/noor/internal/api"
)

// Server manages the localhost HTTP server lifecycle for a profile daemon.
type Server struct {
	http     *http.Server
	listener net.Listener
	addr     string
	logger   *zap.Logger
}

// NewServer creates an HTTP server bound to the configured loopback address.
func NewServer(p Params, logger *zap.Logger, h *api.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", p.HTTPAddr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:      api.NewRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &Server{
		http:     srv,
		listener: listener,
		addr:     listener.Addr().String(),
		logger:   logger,
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string { return s.addr }

// Start begins serving HTTP requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.addr))
	if err := s.http.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop performs a graceful shutdown.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("http server stopping")
	if err := s.http.Shutdown(ctx); err != nil {
		_ = s.http.Close()
	}
}

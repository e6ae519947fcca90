package rpcserver

import (
	"context"
	"net"
	"sync"

	"github.com/matteobertozzi/r5lrpc/internal/logger"
	"github.com/matteobertozzi/r5lrpc/pkg/metrics"
)

// Server accepts TCP connections and drives each through its own
// Connection dispatch pipeline.
type Server struct {
	listenAddr string
	service    *Service
	cfg        Config
	metrics    metrics.RpcMetrics

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Connection]struct{}
}

// New creates a Server that will accept connections on listenAddr once
// Serve is called.
func New(listenAddr string, service *Service, cfg Config, m metrics.RpcMetrics) *Server {
	return &Server{
		listenAddr: listenAddr,
		service:    service,
		cfg:        cfg,
		metrics:    m,
		conns:      make(map[*Connection]struct{}),
	}
}

// Serve listens on the configured address and dispatches every accepted
// connection on its own goroutine, blocking until ctx is cancelled or the
// listener errors.
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.listenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			default:
				wg.Wait()
				return err
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewConnection(conn, s.service, s.cfg, s.metrics)
			s.trackConn(c)
			defer s.untrackConn(c)
			if err := c.Run(ctx); err != nil {
				logger.DebugCtx(ctx, "connection closed", "error", err.Error())
			}
		}()
	}
}

func (s *Server) trackConn(c *Connection) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrackConn(c *Connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// Close closes the listener and every tracked connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

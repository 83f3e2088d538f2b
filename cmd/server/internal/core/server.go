package core

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xwirehq/xwire-server/cmd/server/internal/config"
	"github.com/xwirehq/xwire-server/cmd/server/internal/logger"
)

// Server accepts TCP connections and hands each one to a ConnectionHandler
// on its own goroutine. Start and Stop bracket a race-free lifecycle: Stop
// returns only after the accept loop has exited and every handler has
// finished.
type Server struct {
	cfg     *config.Config
	handler ConnectionHandler

	listener *net.TCPListener
	addr     net.Addr

	running  atomic.Bool
	loopDone chan struct{}

	// conns and wg are the only state shared across goroutines. The mutex
	// is never held across blocking I/O.
	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

// New creates a server. Nothing is bound until Start.
func New(cfg *config.Config, handler ConnectionHandler) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		conns:   make(map[string]net.Conn),
	}
}

// Start binds the listening socket and launches the accept loop. The socket
// is accepting connections before Start returns, so callers may connect
// immediately using LocalAddr. A bind failure is returned as-is and never
// retried; retrying would mask a genuine port conflict.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.ListenAddr, err)
	}
	tcpListener, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return fmt.Errorf("unexpected listener type %T", ln)
	}

	s.listener = tcpListener
	s.addr = tcpListener.Addr()
	s.loopDone = make(chan struct{})
	s.running.Store(true)

	go s.acceptLoop()

	logger.Info("Server listening", "addr", s.addr.String())
	return nil
}

// LocalAddr returns the concrete bound address. Binding to port 0 makes the
// OS pick a free port; clients must read the result from here rather than
// assuming a fixed one.
func (s *Server) LocalAddr() net.Addr {
	return s.addr
}

// ActiveConnections reports the number of connections currently being
// served.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Stop signals the accept loop to exit, closes the listener, and blocks
// until every connection handler has returned. Handlers are never
// interrupted: each drains its current read or write and exits when its
// peer disconnects, so a client that never disconnects holds Stop open.
// Callers needing bounded shutdown latency must close their clients first.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		logger.Warn("Server was already stopped or not running")
		return
	}

	logger.Info("Server stopping, waiting for client handlers to finish")
	<-s.loopDone

	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Error("Error closing listener", "error", err)
	}

	s.wg.Wait()
	logger.Info("Server stopped")
}

// acceptLoop polls for incoming connections until the running flag flips.
// Each poll arms a deadline on the listener so Accept wakes up at a bounded
// interval instead of blocking indefinitely or spinning.
func (s *Server) acceptLoop() {
	defer close(s.loopDone)

	for s.running.Load() {
		if err := s.listener.SetDeadline(time.Now().Add(s.cfg.AcceptPollInterval)); err != nil {
			logger.Error("Failed to arm accept deadline", "error", err)
			return
		}

		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if os.IsTimeout(err) {
				// Poll tick; re-check the running flag.
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// A single failed accept must not bring down the server.
			logger.Error("Error accepting connection", "error", err)
			continue
		}

		id := uuid.NewString()
		s.register(id, conn)
		s.wg.Add(1)
		go s.serveConn(id, conn)
	}
}

func (s *Server) serveConn(id string, conn net.Conn) {
	defer s.wg.Done()
	defer s.unregister(id)
	defer conn.Close()

	logger.Info("New client connected", "conn_id", id, "remote_addr", conn.RemoteAddr().String())
	s.handler.HandleConnection(conn)
	logger.Info("Client disconnected", "conn_id", id, "remote_addr", conn.RemoteAddr().String())
}

func (s *Server) register(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

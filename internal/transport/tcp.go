// Package transport implements the TCP command transport: one request
// per client turn, newline-delimited JSON framing, exactly one response
// per request. The transport owns connection lifecycle and notifies the
// session layer on disconnect; it never interprets commands itself.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/remote-account-ledger/internal/config"
	"github.com/remote-account-ledger/internal/protocol"
)

// maxRequestBytes bounds a single request line
const maxRequestBytes = 64 * 1024

// Handler processes one decoded request on behalf of a connection
type Handler interface {
	Dispatch(ctx context.Context, connID string, req *protocol.Request) *protocol.Response
}

// SessionCloser is notified when a connection goes away
type SessionCloser interface {
	EndConn(connID string)
}

// Server accepts client connections and runs one goroutine per
// connection
type Server struct {
	logger      *slog.Logger
	addr        string
	idleTimeout time.Duration
	handler     Handler
	sessions    SessionCloser

	// baseCtx outlives individual connections so a disconnect can never
	// interrupt an in-flight ledger mutation
	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn
	wg       sync.WaitGroup
}

// NewServer creates a TCP command server
func NewServer(logger *slog.Logger, cfg *config.ServerConfig, handler Handler, sessions SessionCloser) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger:      logger,
		addr:        cfg.ListenAddr,
		idleTimeout: cfg.IdleTimeout,
		handler:     handler,
		sessions:    sessions,
		baseCtx:     baseCtx,
		cancelBase:  cancel,
		conns:       make(map[string]net.Conn),
	}
}

// Start listens and serves until Stop is called. Blocks.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("TCP server listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		connID := uuid.New().String()
		s.mu.Lock()
		s.conns[connID] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(connID, conn)
	}
}

// Addr returns the bound listen address, or empty before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener, waits for in-flight connections up to the
// context deadline, then force-closes the rest
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping TCP server")

	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.mu.Lock()
		for _, conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		<-done
	}

	s.cancelBase()
	return nil
}

// serveConn runs the request loop for one connection
func (s *Server) serveConn(connID string, conn net.Conn) {
	logger := s.logger.With("conn_id", connID, "remote_addr", conn.RemoteAddr().String())
	logger.Info("client connected")

	defer func() {
		_ = conn.Close()

		s.mu.Lock()
		delete(s.conns, connID)
		s.mu.Unlock()

		// Session teardown happens after the in-flight request, if any,
		// has completed
		s.sessions.EndConn(connID)
		s.wg.Done()
		logger.Info("client disconnected")
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxRequestBytes)
	encoder := json.NewEncoder(conn)

	for {
		if s.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Debug("connection read ended", "error", err)
			}
			return
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		var resp *protocol.Response
		if err := json.Unmarshal(line, &req); err != nil {
			// Unreadable request; the connection stays open
			resp = protocol.Error(protocol.CodeMalformedRequest, "Unreadable request")
		} else {
			resp = s.handler.Dispatch(s.baseCtx, connID, &req)
		}

		if err := encoder.Encode(resp); err != nil {
			logger.Warn("failed to write response", "error", err)
			return
		}
	}
}

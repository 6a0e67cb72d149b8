package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/albertocavalcante/notesync/internal/log"
)

// shutdownTimeout bounds how long Shutdown waits for client goroutines.
const shutdownTimeout = 5 * time.Second

// Server is the daemon server that listens on a Unix socket.
type Server struct {
	paths     *Paths
	listener  net.Listener
	handler   *Handler
	startTime time.Time
	version   string

	clients   map[*clientConn]struct{}
	clientsMu sync.RWMutex

	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	wg          sync.WaitGroup
	shutdownErr error
}

// clientConn is one accepted connection. Requests on it are answered in
// order.
type clientConn struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	closed  bool
	closeMu sync.Mutex
}

// ServerConfig configures the daemon server.
type ServerConfig struct {
	Paths   *Paths
	Version string
	Handler *Handler
}

// NewServer creates a new daemon server. Without a handler the server only
// answers ping and shutdown.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		paths:     cfg.Paths,
		version:   cfg.Version,
		clients:   make(map[*clientConn]struct{}),
		shutdown:  make(chan struct{}),
		startTime: time.Now(),
	}

	s.handler = cfg.Handler
	if s.handler == nil {
		s.handler = NewHandler(HandlerConfig{})
	}
	s.handler.server = s

	return s
}

// Start listens for connections and blocks until the context is cancelled,
// a termination signal arrives or a client requests shutdown.
func (s *Server) Start(ctx context.Context) error {
	logger := log.Component("daemon")

	if _, err := CleanupStale(s.paths); err != nil {
		logger.Warn("failed to clean up stale files", "error", err)
	}
	if err := s.paths.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create daemon directory: %w", err)
	}

	listener, err := net.Listen("unix", s.paths.Socket)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.paths.Socket, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	if err := s.paths.WritePID(); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	logger.Info("daemon started",
		"pid", os.Getpid(),
		"socket", s.paths.Socket,
		"version", s.version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.wg.Add(1)
	go s.acceptLoop()

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-s.shutdown:
		logger.Info("shutdown requested via RPC")
	}

	return s.Shutdown()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	logger := log.Component("daemon")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("accept error", "error", err)
			continue
		}

		client := &clientConn{
			conn:    conn,
			encoder: json.NewEncoder(conn),
			decoder: json.NewDecoder(bufio.NewReader(conn)),
		}

		s.clientsMu.Lock()
		s.clients[client] = struct{}{}
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		logger.Debug("client connected", "client_count", clientCount)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleClient(client)
		}()
	}
}

func (s *Server) closing() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.isShutdown
}

// handleClient processes requests from a single client until it disconnects.
func (s *Server) handleClient(client *clientConn) {
	logger := log.Component("daemon")
	defer func() {
		client.close()
		s.clientsMu.Lock()
		delete(s.clients, client)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()
		logger.Debug("client disconnected", "client_count", clientCount)
	}()

	for {
		var req Request
		if err := client.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			var syntaxErr *json.SyntaxError
			if !errors.As(err, &syntaxErr) {
				// The stream is unusable after a read error.
				logger.Debug("failed to read request", "error", err)
				return
			}
			logger.Debug("failed to decode request", "error", err)
			if err := client.send(NewErrorResponse(nil, ErrCodeParseError, "Parse error", nil)); err != nil {
				return
			}
			// A syntax error leaves the decoder stuck; start over on the connection.
			client.decoder = json.NewDecoder(bufio.NewReader(client.conn))
			continue
		}

		if req.JSONRPC != JSONRPCVersion {
			resp := NewErrorResponse(req.ID, ErrCodeInvalidRequest, "Invalid Request: unsupported JSON-RPC version", nil)
			if err := client.send(resp); err != nil {
				logger.Debug("failed to send error response", "error", err)
			}
			continue
		}

		if resp := s.handler.HandleRequest(&req); resp != nil {
			if err := client.send(resp); err != nil {
				logger.Debug("failed to send response", "error", err)
				return
			}
		}
	}
}

// Shutdown stops the listener, the watcher and every client connection,
// then removes the socket and PID files. It is safe to call more than once.
func (s *Server) Shutdown() error {
	s.shutdownMu.Lock()
	if s.isShutdown {
		s.shutdownMu.Unlock()
		return s.shutdownErr
	}
	s.isShutdown = true
	s.shutdownMu.Unlock()

	logger := log.Component("daemon")
	logger.Info("shutting down daemon")

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logger.Warn("failed to close listener", "error", err)
		}
	}

	s.handler.Stop()

	s.clientsMu.Lock()
	for client := range s.clients {
		client.close()
	}
	s.clientsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out waiting for clients")
	}

	if err := s.paths.Cleanup(); err != nil {
		logger.Warn("failed to clean up daemon files", "error", err)
		s.shutdownErr = err
	}

	logger.Info("daemon stopped")
	return s.shutdownErr
}

// RequestShutdown asks Start to return. It is safe to call more than once.
func (s *Server) RequestShutdown() {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	if s.isShutdown {
		return
	}
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// send writes resp to the client.
func (c *clientConn) send(resp *Response) error {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		return net.ErrClosed
	}
	return c.encoder.Encode(resp)
}

// close closes the connection. Shutdown and the client's own goroutine may
// both call it.
func (c *clientConn) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}

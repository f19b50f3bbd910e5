package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nerrad567/homenet/internal/infrastructure/logging"
)

// DefaultMaxLineLength is used when Config.MaxLineLength is zero.
const DefaultMaxLineLength = 1024

// Terminator follows every response on the wire.
const Terminator = "\n\n"

// ErrServerRunning is returned by Start on a server that is already started.
var ErrServerRunning = errors.New("server: already running")

// Handler turns one request line into one response.
type Handler interface {
	Handle(ctx context.Context, request string) string
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, request string) string

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, request string) string {
	return f(ctx, request)
}

// Config configures a Server.
type Config struct {
	// Address to listen on, e.g. "0.0.0.0:8080" or "127.0.0.1:0".
	Address string

	// MaxLineLength is the longest accepted request in bytes, excluding
	// the line terminator.
	MaxLineLength int
}

// Server accepts connections and serves request lines.
type Server struct {
	config   Config
	handler  Handler
	logger   *logging.Logger
	listener net.Listener

	conns   map[net.Conn]struct{}
	connsMu sync.Mutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a server that passes each request to h.
func New(config Config, h Handler) *Server {
	if config.MaxLineLength <= 0 {
		config.MaxLineLength = DefaultMaxLineLength
	}
	return &Server{
		config:  config,
		handler: h,
		logger:  logging.Discard(),
		conns:   make(map[net.Conn]struct{}),
	}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger *logging.Logger) {
	s.logger = logger
}

// Start listens on the configured address and begins accepting in the
// background. Cancelling ctx has the same effect as Close, minus the wait.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Address, err)
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	// Unblock Accept and pending reads when the parent context ends.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		s.shutdown()
	}()

	s.logger.Info("line server listening", "address", listener.Addr().String())
	return nil
}

// Close stops the server and waits for all workers to finish.
func (s *Server) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

// shutdown stops accepting and closes every live connection.
func (s *Server) shutdown() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.listener.Close() //nolint:errcheck // Unblocks Accept

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close() //nolint:errcheck // Unblocks the worker's read
	}
	s.connsMu.Unlock()

	s.logger.Info("line server stopped")
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of live connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		if !s.track(conn) {
			conn.Close() //nolint:errcheck // Shutting down
			return
		}

		s.wg.Add(1)
		go s.serve(conn)
	}
}

// track registers conn unless the server is shutting down.
func (s *Server) track(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

// serve runs one connection until the peer goes away or I/O fails.
func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close() //nolint:errcheck // Best effort

	log := s.logger.With("conn_id", uuid.New().String(), "remote", conn.RemoteAddr().String())
	log.Info("client connected")

	scanner := bufio.NewScanner(conn)
	// Room for the line plus CRLF; longer lines end the scan with ErrTooLong.
	scanner.Buffer(make([]byte, 0, min(4096, s.config.MaxLineLength+2)), s.config.MaxLineLength+2)

	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		request := scanner.Text()
		if len(request) > s.config.MaxLineLength {
			log.Warn("request line too long, closing connection", "max", s.config.MaxLineLength)
			return
		}
		log.Debug("request received", "request", request)

		response := s.handler.Handle(s.ctx, request)
		if err := writeResponse(w, response); err != nil {
			log.Warn("write failed, closing connection", "error", err)
			return
		}
	}

	switch err := scanner.Err(); {
	case err == nil, errors.Is(err, io.EOF):
		log.Info("client disconnected")
	case errors.Is(err, bufio.ErrTooLong):
		log.Warn("request line too long, closing connection", "max", s.config.MaxLineLength)
	case !s.running.Load():
		log.Info("connection closed by shutdown")
	default:
		log.Warn("read failed, closing connection", "error", err)
	}
}

// writeResponse writes resp without trailing newlines, then Terminator.
func writeResponse(w *bufio.Writer, resp string) error {
	if _, err := w.WriteString(strings.TrimRight(resp, "\n")); err != nil {
		return err
	}
	if _, err := w.WriteString(Terminator); err != nil {
		return err
	}
	return w.Flush()
}

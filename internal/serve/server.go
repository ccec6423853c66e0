// Package serve implements the ephemeral file server used to push toolbox
// binaries to a remote peer. It speaks just enough HTTP/1.1 for wget and
// curl: the path is taken from the request line, headers are ignored, and
// every response closes the connection. The server stops accepting as soon
// as one file has been delivered.
package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thruflo/shelly/internal/logging"
)

const (
	// DefaultPollInterval bounds how long the accept loop waits before
	// checking for shutdown.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultReadTimeout bounds how long a connection may stay silent.
	DefaultReadTimeout = 10 * time.Second

	maxRequestSize = 2048
	notFoundBody   = "404 Not Found."
)

// BindError reports a failure to bind the listening socket.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for connection events.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) { s.pollInterval = d }
}

// WithReadTimeout overrides DefaultReadTimeout.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// Server is a single-shot file server.
type Server struct {
	addr         string
	files        *FileMapping
	log          *logging.Logger
	pollInterval time.Duration
	readTimeout  time.Duration

	mu sync.Mutex
	ln *net.TCPListener

	// deliverMu serialises successful responses so only one is ever sent.
	deliverMu sync.Mutex
	delivered string

	stop     chan struct{}
	stopOnce sync.Once
	handlers sync.WaitGroup
}

// NewServer creates a Server for files on host:port. Port 0 picks a free
// port; see Addr.
func NewServer(host string, port int, files *FileMapping, opts ...Option) *Server {
	s := &Server{
		addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		files:        files,
		log:          logging.With("component", "serve"),
		pollInterval: DefaultPollInterval,
		readTimeout:  DefaultReadTimeout,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the listening socket. It is called by Serve when needed and
// may be called earlier to surface bind errors before serving in the
// background. There is no retry.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return &BindError{Addr: s.addr, Err: err}
	}
	s.ln = ln.(*net.TCPListener)
	s.log.Info("listening", "addr", s.ln.Addr().String(), "files", s.files.Len())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Delivered returns the public name of the file that was served, if any.
func (s *Server) Delivered() string {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	return s.delivered
}

// Stop closes the listener and signals the accept loop to exit. It may be
// called any number of times from any goroutine.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ln != nil {
			if err := s.ln.Close(); err != nil {
				s.log.Debug("closing listener", "error", err)
			}
		}
	})
}

func (s *Server) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done is closed once Stop has been called.
func (s *Server) Done() <-chan struct{} {
	return s.stop
}

// Serve accepts connections until a file has been delivered, Stop is
// called, ctx is cancelled or accept fails. Before returning it closes the
// listener and waits for connections already accepted to be answered.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	defer s.handlers.Wait()
	defer ln.Close()

	for {
		select {
		case <-s.stop:
			s.log.Info("shutdown signal received; stopping server")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := ln.SetDeadline(time.Now().Add(s.pollInterval)); err != nil {
			if s.stopped() {
				continue
			}
			return fmt.Errorf("failed to set accept deadline: %w", err)
		}
		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) && s.stopped() {
				continue
			}
			return fmt.Errorf("accept error: %w", err)
		}

		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			s.log.Debug("failed to set read deadline", "remote", remote, "error", err)
		}
	}
	buf := make([]byte, maxRequestSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil {
			s.log.Debug("connection closed before request", "remote", remote, "error", err)
		}
		return
	}

	reqPath := parseRequestPath(buf[:n])
	name := resolveName(reqPath)
	if err := s.respond(conn, name); err != nil {
		s.log.Warn("request failed", "remote", remote, "path", reqPath, "error", err)
		return
	}
	// The listener is closed before conn, so nothing is accepted once the
	// client sees the end of the response.
	s.log.Info("delivered", "remote", remote, "name", name)
	s.Stop()
}

// respond writes the response for name. It returns nil only when a 200
// response was written in full.
func (s *Server) respond(conn net.Conn, name string) error {
	path, err := s.files.Lookup(name)
	if err != nil {
		return s.notFound(conn, fmt.Errorf("%s: %w", name, err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s.notFound(conn, fmt.Errorf("failed to read %s: %w", path, err))
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.delivered != "" {
		return s.notFound(conn, fmt.Errorf("%s: already delivered %s", name, s.delivered))
	}
	if _, err := conn.Write(okResponse(data)); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	s.delivered = name
	return nil
}

func (s *Server) notFound(conn net.Conn, cause error) error {
	if _, err := conn.Write(notFoundResponse(notFoundBody)); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return cause
}

// parseRequestPath returns the second token of the request line, or "/"
// when the line has fewer tokens.
func parseRequestPath(req []byte) string {
	line := req
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return "/"
	}
	return fields[1]
}

// resolveName strips one leading slash; an empty name means the index.
func resolveName(p string) string {
	name := strings.TrimPrefix(p, "/")
	if name == "" {
		return IndexName
	}
	return name
}

func okResponse(body []byte) []byte {
	header := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n", len(body))
	resp := make([]byte, 0, len(header)+len(body))
	resp = append(resp, header...)
	return append(resp, body...)
}

func notFoundResponse(body string) []byte {
	return []byte(fmt.Sprintf("HTTP/1.1 404 NOT FOUND\r\nContent-Length: %d\r\n\r\n%s", len(body), body))
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/a1ishm/staticd/pkg/middleware"
	"github.com/a1ishm/staticd/pkg/request"
	"github.com/a1ishm/staticd/pkg/response"
)

// MaxRequestSize is the size of the single read done per connection.
// Longer requests are truncated.
const MaxRequestSize = 1024

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMiddleware appends m to the chain run before every request.
func WithMiddleware(m ...middleware.Middleware) Option {
	return func(s *Server) { s.chain = append(s.chain, m...) }
}

// WithFallback sets the outcome for paths that match no route.
func WithFallback(o request.Outcome) Option {
	return func(s *Server) { s.fallback = o }
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.writeTimeout = d }
}

type Server struct {
	mu        sync.RWMutex
	addr      string
	processor *request.Processor
	listener  net.Listener
	closed    bool
	wg        sync.WaitGroup

	logger       *slog.Logger
	chain        middleware.Chain
	fallback     request.Outcome
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:   slog.Default(),
		fallback: request.NoContentFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Initialize validates the listen address and resolves the static root.
// The root does not have to exist yet.
func (s *Server) Initialize(ipAddress, port, staticRoot string) error {
	ip, err := netip.ParseAddr(ipAddress)
	if err != nil {
		return fmt.Errorf("%w: invalid IP address %q", ErrConfiguration, ipAddress)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%w: invalid port %q: must be an integer between 0 and 65535", ErrConfiguration, port)
	}
	root, err := filepath.Abs(staticRoot)
	if err != nil {
		return fmt.Errorf("%w: static root %q: %v", ErrConfiguration, staticRoot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil && !s.closed {
		return fmt.Errorf("%w: server is running", ErrLifecycle)
	}
	s.addr = net.JoinHostPort(ip.String(), strconv.Itoa(p))
	s.processor = &request.Processor{Root: root, Fallback: s.fallback}
	s.listener = nil
	s.closed = false
	return nil
}

// Start binds the listening socket.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processor == nil {
		return errNotInitialized
	}
	if s.listener != nil && !s.closed {
		return fmt.Errorf("%w: server already started", ErrLifecycle)
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error("failed to start server", "addr", s.addr, "error", err)
		return fmt.Errorf("%w: %w: listen %s: %w", ErrLifecycle, ErrSocket, s.addr, err)
	}
	s.listener = ln
	s.closed = false
	s.logger.Info("server started", "addr", ln.Addr().String(), "static_root", s.processor.Root)
	return nil
}

// Stop closes the listening socket. Stopping a server that is not running is
// a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processor == nil {
		return errNotInitialized
	}
	if s.listener == nil || s.closed {
		return nil
	}

	s.closed = true
	if err := s.listener.Close(); err != nil {
		s.logger.Error("failed to stop server", "addr", s.addr, "error", err)
		return fmt.Errorf("%w: close %s: %w", ErrSocket, s.addr, err)
	}
	s.logger.Info("server stopped", "addr", s.addr)
	return nil
}

// Addr returns the bound address once started, the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Accept blocks until a connection arrives. After Stop it returns an error
// wrapping net.ErrClosed.
func (s *Server) Accept() (net.Conn, error) {
	s.mu.RLock()
	initialized, ln := s.processor != nil, s.listener
	s.mu.RUnlock()
	if !initialized {
		return nil, errNotInitialized
	}
	if ln == nil {
		return nil, fmt.Errorf("%w: server not started", ErrLifecycle)
	}

	conn, err := ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("%w: accept: %w", ErrSocket, err)
	}
	return conn, nil
}

// Serve accepts connections until Stop is called or ctx is done, handling
// each on its own goroutine. It waits for in-flight connections before
// returning.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		if err := s.Stop(); err != nil {
			s.logger.Error("stop on context done", "error", err)
		}
	})
	defer stop()
	defer s.wg.Wait()

	var delay time.Duration
	for {
		conn, err := s.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if errors.Is(err, ErrLifecycle) {
			return err
		}
		if err != nil {
			delay = nextAcceptDelay(delay)
			s.logger.Error("cannot accept connection", "error", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Handle(conn)
		}()
	}
}

// nextAcceptDelay doubles the wait after a failed accept, from 5ms up to 1s.
func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		return time.Second
	}
	return d
}

// Handle serves one request on conn and closes it. Errors are logged, never
// returned, so one connection cannot take the server down.
func (s *Server) Handle(conn net.Conn) {
	remote := remoteAddr(conn)
	if err := s.handle(conn); err != nil {
		if errors.Is(err, request.ErrMalformedRequest) {
			s.logger.Warn("malformed request", "remote", remote, "error", err)
			return
		}
		s.logger.Error("cannot serve request", "remote", remote, "error", err)
	}
}

func (s *Server) handle(conn net.Conn) (err error) {
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close: %w", ErrSocket, cerr)
		}
	}()

	s.mu.RLock()
	p := s.processor
	s.mu.RUnlock()
	if p == nil {
		return errNotInitialized
	}

	remote := remoteAddr(conn)
	s.logger.Debug("got connection", "remote", remote)

	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return fmt.Errorf("%w: set read deadline: %w", ErrSocket, err)
		}
	}
	buf := make([]byte, MaxRequestSize)
	n, err := conn.Read(buf)
	if err != nil && !(err == io.EOF && n > 0) {
		if err == io.EOF {
			s.logger.Debug("peer closed without a request", "remote", remote)
			return nil
		}
		return fmt.Errorf("%w: read: %w", ErrSocket, err)
	}
	raw := strings.ToValidUTF8(string(buf[:n]), "\uFFFD")

	if s.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("%w: set write deadline: %w", ErrSocket, err)
		}
	}

	req, err := request.Parse(raw)
	if err != nil {
		contentType := request.ContentType(request.BadRequestPage)
		out, cerr := p.Canned(request.BadRequestPage, http.StatusBadRequest)
		if cerr != nil {
			contentType, out = "text/plain", request.Outcome{Status: http.StatusBadRequest}
		}
		if werr := s.respond(conn, contentType, out); werr != nil {
			return werr
		}
		return err
	}

	resource := request.Resource(req.Path)
	contentType := request.ContentType(resource)

	if !s.chain.Handle(raw) {
		s.logger.Info("request rejected by middleware", "remote", remote, "method", req.Method, "path", req.Path)
		return s.respond(conn, contentType, request.Outcome{Status: http.StatusUnauthorized})
	}

	out, err := p.Process(req, resource)
	if err != nil {
		return fmt.Errorf("process %s: %w", req.Path, err)
	}
	if err := s.respond(conn, contentType, out); err != nil {
		return err
	}
	s.logger.Info("request", "remote", remote, "method", req.Method, "path", req.Path, "status", out.Status)
	return nil
}

func (s *Server) respond(conn net.Conn, contentType string, out request.Outcome) error {
	if err := response.Write(conn, contentType, out.Body, out.Status); err != nil {
		return fmt.Errorf("%w: write: %w", ErrSocket, err)
	}
	return nil
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

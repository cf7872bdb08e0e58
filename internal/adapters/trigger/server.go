package trigger

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// HandlerFunc serves one accepted connection.
type HandlerFunc func(ctx context.Context, conn net.Conn) error

// Server is the private connection server of one traced command. Each
// accepted connection is served on its own goroutine; at most limit
// handlers run at once.
type Server struct {
	path    string
	ln      net.Listener
	handler HandlerFunc
	slots   *semaphore.Weighted
	logger  ports.Logger

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closed   bool
	sessions sync.WaitGroup
	errs     error
}

// Listen creates a server listening on the unix socket at path.
func Listen(path string, limit int, handler HandlerFunc, logger ports.Logger) (*Server, error) {
	if limit < 1 {
		limit = 1
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, zerr.With(zerr.Wrap(err, "failed to remove stale socket"), "path", path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrListenFailed.Error()), "path", path)
	}

	return &Server{
		path:    path,
		ln:      ln,
		handler: handler,
		slots:   semaphore.NewWeighted(int64(limit)),
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the socket path.
func (s *Server) Addr() string {
	return s.path
}

// Serve accepts connections until the listener is closed or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.abort)
	defer stop()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return zerr.Wrap(err, "accept failed")
		}

		if err := s.slots.Acquire(ctx, 1); err != nil {
			_ = conn.Close()
			return nil
		}

		if !s.track(conn) {
			_ = conn.Close()
			s.slots.Release(1)
			return nil
		}
		s.logger.Debug("connection accepted on " + s.path)

		go func() {
			defer s.sessions.Done()
			defer s.slots.Release(1)
			defer s.untrack(conn)

			if err := s.handler(ctx, conn); err != nil {
				s.mu.Lock()
				s.errs = errors.Join(s.errs, err)
				s.mu.Unlock()
			}
		}()
	}
}

// Shutdown stops accepting and waits up to grace for open sessions to end.
// Sessions still open after grace, typically held by a background
// descendant of the command, are closed. It removes the socket and returns
// the joined errors of failed sessions.
func (s *Server) Shutdown(grace time.Duration) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	_ = s.ln.Close()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.logger.Debug("closing lingering sessions on " + s.path)
		s.abort()
		<-done
	}
	_ = os.Remove(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// abort closes the listener and every open connection.
func (s *Server) abort() {
	s.mu.Lock()
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	_ = s.ln.Close()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.sessions.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()

	_ = conn.Close()
}

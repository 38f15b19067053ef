package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"mvnd/internal/logging"
)

// Handler serves one client connection. The connection is closed after
// ServeConn returns.
type Handler interface {
	ServeConn(ctx context.Context, conn *Conn)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, conn *Conn)

func (f HandlerFunc) ServeConn(ctx context.Context, conn *Conn) { f(ctx, conn) }

// Server accepts build clients on a Unix domain socket.
type Server struct {
	path     string
	handler  Handler
	logger   *slog.Logger
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer listens on the socket at path, replacing any stale socket file.
func NewServer(ctx context.Context, path string, handler Handler, logger *slog.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("ipc server requires handler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:     path,
		handler:  handler,
		logger:   logging.NewComponentLogger(logger, "ipc"),
		listener: listener,
		ctx:      serverCtx,
		cancel:   cancel,
	}, nil
}

// Path returns the socket path the server listens on.
func (s *Server) Path() string { return s.path }

// Serve starts accepting connections until Close is called or the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "build clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				client := NewConn(c)
				defer client.Close()
				stop := context.AfterFunc(s.ctx, func() { _ = client.Close() })
				defer stop()
				s.handler.ServeConn(s.ctx, client)
			}(conn)
		}
	}()
}

// Close stops accepting, closes live connections, waits for handlers and
// removes the socket file.
func (s *Server) Close() {
	s.cancel()
	_ = s.listener.Close()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale socket file remains in the registry directory"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or run mvnd --stop"))
	}
}

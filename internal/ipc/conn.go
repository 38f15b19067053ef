package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"mvnd/internal/message"
)

// ErrConnectionClosed reports that the peer went away before the session ended.
var ErrConnectionClosed = errors.New("connection closed by peer")

const dialTimeout = 2 * time.Second

// Conn is a duplex message stream over a Unix domain socket.
type Conn struct {
	conn      net.Conn
	enc       *message.Encoder
	dec       *message.Decoder
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established socket connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{
		conn: c,
		enc:  message.NewEncoder(c),
		dec:  message.NewDecoder(c),
	}
}

// Dial connects to the daemon socket at path.
func Dial(path string) (*Conn, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// Dispatch sends one message to the peer.
func (c *Conn) Dispatch(msg message.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.enc.Encode(msg); err != nil {
		if isClosed(err) {
			return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
		}
		return err
	}
	return nil
}

// Receive blocks until the next message arrives. Stream termination of any
// kind (clean EOF, truncated message, reset or local close) is reported as an
// error wrapping ErrConnectionClosed.
func (c *Conn) Receive() (message.Message, error) {
	msg, err := c.dec.Decode()
	if err != nil {
		if isClosed(err) {
			return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
		}
		return nil, fmt.Errorf("receive: %w", err)
	}
	return msg, nil
}

// Close closes the underlying socket. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// Package tcp frames session messages on a stream connection.
//
// Every message is written as its text followed by a single NUL byte, the
// framing the original clients expect.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Delimiter terminates every frame.
const Delimiter byte = 0

// MaxMessageSize bounds a single frame on the read side.
const MaxMessageSize = 4096

var ErrMessageTooLarge = errors.New("message too large")

// Conn sends framed messages over a net.Conn. It is used by exactly one
// session goroutine.
type Conn struct {
	nc           net.Conn
	writeTimeout time.Duration
	buf          []byte
}

// NewConn wraps nc. A non-positive writeTimeout disables the per-message
// deadline; the context deadline, if any, still applies.
func NewConn(nc net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{nc: nc, writeTimeout: writeTimeout, buf: make([]byte, 0, 128)}
}

// Send writes msg plus the delimiter in one write.
func (c *Conn) Send(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.IndexByte(msg, Delimiter) >= 0 {
		return fmt.Errorf("tcp: message contains delimiter")
	}

	if dl, ok := c.deadline(ctx); ok {
		if err := c.nc.SetWriteDeadline(dl); err != nil {
			return fmt.Errorf("tcp: set deadline: %w", err)
		}
	}

	c.buf = append(c.buf[:0], msg...)
	c.buf = append(c.buf, Delimiter)
	if _, err := c.nc.Write(c.buf); err != nil {
		return fmt.Errorf("tcp: write: %w", err)
	}
	return nil
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

func (c *Conn) deadline(ctx context.Context) (time.Time, bool) {
	var dl time.Time
	if c.writeTimeout > 0 {
		dl = time.Now().Add(c.writeTimeout)
	}
	if ctxDL, ok := ctx.Deadline(); ok && (dl.IsZero() || ctxDL.Before(dl)) {
		dl = ctxDL
	}
	return dl, !dl.IsZero()
}

// Reader reads framed messages, typically on the client side.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, MaxMessageSize)}
}

// ReadMessage returns the next message without its delimiter. It returns
// io.EOF once the stream ends cleanly between frames and
// io.ErrUnexpectedEOF when it ends inside one.
func (r *Reader) ReadMessage() (string, error) {
	var sb strings.Builder
	for {
		chunk, err := r.br.ReadSlice(Delimiter)
		if sb.Len()+len(chunk) > MaxMessageSize+1 {
			return "", ErrMessageTooLarge
		}
		switch {
		case err == nil:
			sb.Write(chunk[:len(chunk)-1])
			return sb.String(), nil
		case errors.Is(err, bufio.ErrBufferFull):
			sb.Write(chunk)
		case errors.Is(err, io.EOF):
			if sb.Len() == 0 && len(chunk) == 0 {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		default:
			return "", err
		}
	}
}

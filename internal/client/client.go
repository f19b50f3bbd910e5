package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// defaultTimeout bounds a Send whose context has no deadline.
const defaultTimeout = 10 * time.Second

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("client: closed")

	// ErrInvalidRequest is returned for requests containing a newline.
	ErrInvalidRequest = errors.New("client: request must be a single line")
)

// Client is a connection to the line server. Send calls are serialised.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Send writes request and returns the server's reply without the
// terminator. The context deadline, or a default timeout, applies to the
// whole exchange.
func (c *Client) Send(ctx context.Context, request string) (string, error) {
	if strings.ContainsAny(request, "\r\n") {
		return "", ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("setting deadline: %w", err)
	}

	// Abort blocked I/O if ctx is cancelled mid-exchange.
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now()) //nolint:errcheck // Best effort wake-up
	})
	defer stop()

	if _, err := c.conn.Write([]byte(request + "\n")); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	var lines []string
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("reading response: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

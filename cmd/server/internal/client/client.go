package client

import (
	"fmt"
	"net"
	"time"

	"github.com/xwirehq/xwire-server/cmd/server/internal/protocol"
)

const defaultMaxFrameBytes = 1 << 20

// Client speaks the framed protocol from the client side: one frame per
// request, one frame per response, in order. It is not safe for concurrent
// use; open one Client per connection.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Dial connects to a server address, normally obtained from the server's
// LocalAddr rather than hardcoded. A timeout of zero disables I/O
// deadlines.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// Send encodes a request variant and writes it as a single frame.
func (c *Client) Send(msg protocol.ClientMessage) error {
	payload, err := protocol.MarshalClient(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(payload)
}

// SendRaw writes an arbitrary payload as one frame. Tests use it to inject
// malformed frames.
func (c *Client) SendRaw(payload []byte) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}
	return protocol.WriteFrame(c.conn, payload)
}

// Receive reads the next frame and decodes it as a response variant.
func (c *Client) Receive() (protocol.ServerMessage, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}
	payload, err := protocol.ReadFrame(c.conn, defaultMaxFrameBytes)
	if err != nil {
		return nil, err
	}
	return protocol.UnmarshalServer(payload)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

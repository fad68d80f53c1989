package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

// Client issues requests to a Server over one connection.
type Client struct {
	conn    *Conn
	timeout time.Duration
	nextID  atomic.Uint64
}

// Dial connects to the server socket at path.
func Dial(path string, timeout time.Duration) (*Client, error) {
	raw, err := dial(path, timeout)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", path, err)
	}
	return NewClient(raw, timeout), nil
}

// NewClient wraps an established connection.
func NewClient(raw net.Conn, timeout time.Duration) *Client {
	return &Client{conn: NewConn(raw), timeout: timeout}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends a request and decodes the reply payload into resp, which may
// be nil.
func (c *Client) Call(msgType string, req, resp any) error {
	id := strconv.FormatUint(c.nextID.Add(1), 10)
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if err := c.conn.SendTyped(id, msgType, req); err != nil {
		return err
	}
	env, err := c.conn.Recv()
	if err != nil {
		return err
	}
	if env.ID != id {
		return fmt.Errorf("control: reply id %q, want %q", env.ID, id)
	}
	if env.Error != "" {
		return errors.New(env.Error)
	}
	if resp == nil || len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, resp); err != nil {
		return fmt.Errorf("control: decode %s reply: %w", msgType, err)
	}
	return nil
}

func (c *Client) Status() (Status, error) {
	var st Status
	err := c.Call(TypeStatus, nil, &st)
	return st, err
}

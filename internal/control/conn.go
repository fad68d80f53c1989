package control

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Conn wraps a net.Conn with length-prefixed JSON framing.
type Conn struct {
	conn net.Conn
	mu   sync.Mutex // serializes writes
}

func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Send writes env as [4-byte BE length][JSON].
func (c *Conn) Send(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("control: marshal envelope: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("control: message too large: %d > %d", len(data), MaxMessageSize)
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("control: write: %w", err)
	}
	return nil
}

// Recv reads one length-prefixed message.
func (c *Conn) Recv() (*Envelope, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("control: read header: %w", err)
	}

	length := binary.BigEndian.Uint32(header)
	if length > MaxMessageSize {
		return nil, fmt.Errorf("control: message too large: %d > %d", length, MaxMessageSize)
	}
	if length == 0 {
		return nil, fmt.Errorf("control: zero-length message")
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return nil, fmt.Errorf("control: read payload: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("control: unmarshal envelope: %w", err)
	}
	return &env, nil
}

// SendTyped wraps payload into an Envelope and sends it.
func (c *Conn) SendTyped(id, msgType string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("control: marshal payload: %w", err)
		}
	}
	return c.Send(&Envelope{ID: id, Type: msgType, Payload: raw})
}

func (c *Conn) SendError(id, msgType, errMsg string) error {
	return c.Send(&Envelope{ID: id, Type: msgType, Error: errMsg})
}

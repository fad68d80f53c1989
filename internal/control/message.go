package control

import (
	"encoding/json"

	"github.com/breeze-rmm/spout2media/internal/health"
)

// Message types.
const (
	TypeStart     = "start"
	TypeStop      = "stop"
	TypeStatus    = "status"
	TypeSetOutput = "set_output"
	TypeSenders   = "senders"
	TypeResult    = "result"
)

// MaxMessageSize bounds a single control message (64KB).
const MaxMessageSize = 64 * 1024

// Envelope is the wire-format wrapper for all control messages.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SetOutputRequest renames the sender. The next frame rebuilds it.
type SetOutputRequest struct {
	SenderName string `json:"senderName"`
}

// Status describes the capture and its counters.
type Status struct {
	State         string `json:"state"`
	SenderName    string `json:"senderName"`
	Constructions uint64 `json:"constructions"`
	Destructions  uint64 `json:"destructions"`
	Published     uint64 `json:"published"`
	Dropped       uint64 `json:"dropped"`
	InitFailures  uint64 `json:"initFailures"`

	Health string         `json:"health,omitempty"`
	Checks []health.Check `json:"checks,omitempty"`
}

// SenderList is the reply to a senders request.
type SenderList struct {
	Active  string   `json:"active"`
	Senders []string `json:"senders"`
}

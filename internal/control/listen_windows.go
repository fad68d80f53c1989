//go:build windows

package control

import (
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// DefaultPath is the control pipe name.
const DefaultPath = `\\.\pipe\spout-sender`

// SDDL: SYSTEM and Administrators get full control, Interactive Users get
// read/write.
const pipeSecurity = "D:P(A;;GA;;;SY)(A;;GA;;;BA)(A;;GRGW;;;IU)"

func listen(path string) (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurity,
		InputBufferSize:    MaxMessageSize,
		OutputBufferSize:   MaxMessageSize,
	}
	l, err := winio.ListenPipe(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("listen pipe %s: %w", path, err)
	}
	return l, nil
}

func dial(path string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(path, &timeout)
}

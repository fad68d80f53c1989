//go:build !windows

package control

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// DefaultPath is the control socket path.
var DefaultPath = filepath.Join(os.TempDir(), "spout-sender.sock")

func listen(path string) (net.Listener, error) {
	// stale socket from a previous run
	os.Remove(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0770); err != nil {
		l.Close()
		return nil, fmt.Errorf("chmod %s: %w", path, err)
	}
	return l, nil
}

func dial(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}

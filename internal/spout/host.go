package spout

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// HostPath returns the executable path of the current process, written into
// each sender's description so receivers can show where a sender lives.
func HostPath() string {
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if exe, err := p.Exe(); err == nil && exe != "" {
			return exe
		}
	}
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return ""
}

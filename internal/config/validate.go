package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"unicode"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

const maxSenderNameLen = 255

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult separates errors that must stop startup from values
// that were clamped or ignored.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// ValidateTiered checks the config. Out-of-range numbers are clamped to safe
// values and reported as warnings; values the sender cannot run with are
// fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	switch {
	case strings.TrimSpace(c.SenderName) == "":
		r.Fatals = append(r.Fatals, fmt.Errorf("sender_name is empty"))
	case len(c.SenderName) > maxSenderNameLen:
		r.Fatals = append(r.Fatals, fmt.Errorf("sender_name is %d bytes, maximum is %d", len(c.SenderName), maxSenderNameLen))
	default:
		for _, ch := range c.SenderName {
			if unicode.IsControl(ch) {
				r.Fatals = append(r.Fatals, fmt.Errorf("sender_name contains control characters"))
				break
			}
		}
	}

	if f, err := gfx.ParseFormat(c.Format); err != nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("format: %w", err))
	} else if !f.Shareable() {
		r.Fatals = append(r.Fatals, fmt.Errorf("format %s cannot be shared with receivers", f))
	}

	if runtime.GOOS == "windows" && c.ControlPipe != "" && !strings.HasPrefix(c.ControlPipe, `\\.\pipe\`) {
		r.Fatals = append(r.Fatals, fmt.Errorf(`control_pipe %q must start with \\.\pipe\`, c.ControlPipe))
	}

	clamp(&r, "width", &c.Width, 1, 16384)
	clamp(&r, "height", &c.Height, 1, 16384)
	clamp(&r, "frame_rate", &c.FrameRate, 1, 240)
	clamp(&r, "max_senders", &c.MaxSenders, 1, 1000)
	clamp(&r, "queue_size", &c.QueueSize, 1, 1024)
	clamp(&r, "log_max_size_mb", &c.LogMaxSizeMB, 1, 1024)
	clamp(&r, "log_max_backups", &c.LogMaxBackups, 0, 100)

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	for _, err := range r.Warnings {
		slog.Warn("config validation", "error", err)
	}
	return r
}

func clamp(r *ValidationResult, key string, v *int, lo, hi int) {
	switch {
	case *v < lo:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d is below minimum %d, clamping", key, *v, lo))
		*v = lo
	case *v > hi:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d exceeds maximum %d, clamping", key, *v, hi))
		*v = hi
	}
}

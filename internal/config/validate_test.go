package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateTieredEmptySenderNameIsFatal(t *testing.T) {
	cfg := Default()
	cfg.SenderName = "   "
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("empty sender name should be fatal")
	}
}

func TestValidateTieredLongSenderNameIsFatal(t *testing.T) {
	cfg := Default()
	cfg.SenderName = strings.Repeat("x", 256)
	result := cfg.ValidateTiered()
	found := false
	for _, err := range result.Fatals {
		if strings.Contains(err.Error(), "maximum is 255") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected length error in fatals: %v", result.Fatals)
	}
}

func TestValidateTieredControlCharsInNameIsFatal(t *testing.T) {
	cfg := Default()
	cfg.SenderName = "name\x00with\x01control"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("control chars in sender name should be fatal")
	}
}

func TestValidateTieredUnknownFormatIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Format = "YUY2"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("unknown format should be fatal")
	}
}

func TestValidateTieredFormatPrefixAccepted(t *testing.T) {
	cfg := Default()
	cfg.Format = "DXGI_FORMAT_R8G8B8A8_UNORM"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("prefixed format rejected: %v", result.Fatals)
	}
}

func TestValidateTieredSizeClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.Width = 0
	cfg.Height = 99999
	result := cfg.ValidateTiered()

	if result.HasFatals() {
		t.Fatalf("clamped size should be warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", result.Warnings)
	}
	if cfg.Width != 1 || cfg.Height != 16384 {
		t.Fatalf("size = %dx%d, want 1x16384 (clamped)", cfg.Width, cfg.Height)
	}
}

func TestValidateTieredFrameRateClamping(t *testing.T) {
	cfg := Default()
	cfg.FrameRate = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped frame rate should be warning: %v", result.Fatals)
	}
	if cfg.FrameRate != 1 {
		t.Fatalf("FrameRate = %d, want 1", cfg.FrameRate)
	}
}

func TestValidateTieredQueueClamping(t *testing.T) {
	cfg := Default()
	cfg.MaxSenders = 0
	cfg.QueueSize = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped queue should be warning: %v", result.Fatals)
	}
	if cfg.MaxSenders != 1 {
		t.Fatalf("MaxSenders = %d, want 1", cfg.MaxSenders)
	}
	if cfg.QueueSize != 1 {
		t.Fatalf("QueueSize = %d, want 1", cfg.QueueSize)
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestFatalAndWarningReportedSeparately(t *testing.T) {
	cfg := Default()
	cfg.SenderName = ""  // fatal
	cfg.FrameRate = 1000 // warning
	result := cfg.ValidateTiered()

	if len(result.Fatals) != 1 || len(result.Warnings) != 1 {
		t.Fatalf("fatals = %v, warnings = %v", result.Fatals, result.Warnings)
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid config has warnings: %v", result.Warnings)
	}
}

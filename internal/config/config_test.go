package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spout-sender.yaml")
	data := "sender_name: Preview\nwidth: 1280\nheight: 720\nframe_rate: 30\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SenderName != "Preview" || cfg.Width != 1280 || cfg.Height != 720 || cfg.FrameRate != 30 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Format != "B8G8R8A8_UNORM" || cfg.MaxSenders != 64 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spout-sender.yaml")
	if err := os.WriteFile(path, []byte("sender_name: FromFile\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPOUT_SENDER_NAME", "FromEnv")
	t.Setenv("SPOUT_MAX_SENDERS", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SenderName != "FromEnv" || cfg.MaxSenders != 10 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "spout-sender.yaml")
	cfg := Default()
	cfg.SenderName = "Saved"
	cfg.Width = 640

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SenderName != "Saved" || got.Width != 640 {
		t.Fatalf("got %+v", got)
	}
}

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/spout"
)

type fakeNamespace struct {
	names  []string
	active string
	infos  map[string]spout.SenderInfo
}

func (f fakeNamespace) Senders() ([]string, error)    { return f.names, nil }
func (f fakeNamespace) ActiveSender() (string, error) { return f.active, nil }
func (f fakeNamespace) SenderInfo(name string) (spout.SenderInfo, error) {
	info, ok := f.infos[name]
	if !ok {
		return spout.SenderInfo{}, errors.New("sender map missing")
	}
	return info, nil
}

func testNamespace() fakeNamespace {
	return fakeNamespace{
		names:  []string{"Game", "Ghost"},
		active: "Game",
		infos: map[string]spout.SenderInfo{
			"Game": {ShareHandle: 0x1234, Width: 1920, Height: 1080, Format: gfx.FormatB8G8R8A8Unorm, Description: `C:\game.exe`},
		},
	}
}

func TestListSenders(t *testing.T) {
	rows, err := listSenders(testNamespace())
	if err != nil {
		t.Fatalf("listSenders: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if !rows[0].Active || rows[0].Format != "B8G8R8A8_UNORM" || rows[0].ShareHandle != "0x00001234" {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Active || rows[1].Error == "" {
		t.Fatalf("row 1 = %+v", rows[1])
	}
}

func TestWriteListingYAML(t *testing.T) {
	rows, _ := listSenders(testNamespace())
	var buf bytes.Buffer
	if err := writeListing(&buf, rows, "yaml"); err != nil {
		t.Fatalf("writeListing: %v", err)
	}
	var back []senderRow
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("yaml: %v\n%s", err, buf.String())
	}
	if len(back) != 2 || back[0].Name != "Game" || back[0].Width != 1920 {
		t.Fatalf("decoded %+v", back)
	}
}

func TestWriteListingTable(t *testing.T) {
	rows, _ := listSenders(testNamespace())
	var buf bytes.Buffer
	if err := writeListing(&buf, rows, "table"); err != nil {
		t.Fatalf("writeListing: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "1920x1080") || !strings.Contains(out, "sender map missing") {
		t.Fatalf("table:\n%s", out)
	}
}

func TestWriteListingUnknownFormat(t *testing.T) {
	if err := writeListing(&bytes.Buffer{}, nil, "xml"); err == nil {
		t.Fatal("expected an error")
	}
}

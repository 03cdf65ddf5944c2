package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Adda-Baaj/preview-harvester/internal/config"
)

func TestInitWriterEmitsStructuredJSON(t *testing.T) {
	prev := S
	t.Cleanup(func() { S = prev })

	var buf bytes.Buffer
	if _, err := InitWriter(&config.Config{AppName: "preview-harvester", Env: "test", LogLevel: "info"}, &buf); err != nil {
		t.Fatalf("InitWriter: %v", err)
	}

	Default().InfoObj("provider crawl completed", "provider_result", map[string]any{"provider_id": "p1"})
	Default().DebugObj("dropped below level", "debug", nil)
	if err := Close(); err != nil && !strings.Contains(err.Error(), "sync") {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "provider crawl completed" || entry["app"] != "preview-harvester" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts field in %v", entry)
	}
	result, _ := entry["provider_result"].(map[string]any)
	if result["provider_id"] != "p1" {
		t.Fatalf("unexpected provider_result %v", entry["provider_result"])
	}
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	prev := S
	S = nil
	t.Cleanup(func() { S = prev })

	Default().ErrorObj("ignored", "k", 1)
	WarnObj("ignored", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warning").String() != "warn" || parseLevel("bogus").String() != "info" {
		t.Fatalf("unexpected level mapping")
	}
}

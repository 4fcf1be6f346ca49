package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "production", "warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info().Msg("dropped")
	logger.Warn().Str("provider", "mymemory").Msg("translation provider failed")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "anubad" {
		t.Fatalf("unexpected service: %v", entry["service"])
	}
	if entry["provider"] != "mymemory" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewWithWriter(&bytes.Buffer{}, "local", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := NewWithWriter(&bytes.Buffer{}, "local", ""); err != nil {
		t.Fatalf("empty level should default to info: %v", err)
	}
}

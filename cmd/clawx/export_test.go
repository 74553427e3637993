package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bit-cook/ClawX/internal/chat"
	"github.com/bit-cook/ClawX/internal/config"
)

func exportSnapshot() chat.Snapshot {
	return chat.Snapshot{
		Messages: []chat.Message{
			{ID: "m1", Role: chat.RoleUser, Content: "hello", Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)},
			{ID: "run-r1", Role: chat.RoleAssistant, Content: "hi there", Timestamp: time.Date(2025, 3, 14, 9, 26, 55, 0, time.UTC)},
		},
	}
}

func TestWriteExportExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "nested", "transcript.json")

	loaded := &config.Config{Export: config.ExportConfig{Dir: tmpDir}}
	saved, err := writeExport(loaded, "main", exportSnapshot(), target)
	if err != nil {
		t.Fatalf("writeExport failed: %v", err)
	}
	if saved != target {
		t.Fatalf("Expected path %q, got %q", target, saved)
	}

	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}

	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if doc.SessionKey != "main" {
		t.Errorf("Expected session key main, got %q", doc.SessionKey)
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(doc.Messages))
	}
	if doc.Messages[0].Role != chat.RoleUser || doc.Messages[0].Content != "hello" {
		t.Errorf("User message not preserved: %+v", doc.Messages[0])
	}
	if doc.Messages[1].ID != "run-r1" || doc.Messages[1].Content != "hi there" {
		t.Errorf("Assistant message not preserved: %+v", doc.Messages[1])
	}
}

func TestWriteExportDefaultPath(t *testing.T) {
	tmpDir := t.TempDir()

	loaded := &config.Config{Export: config.ExportConfig{Dir: tmpDir}}
	saved, err := writeExport(loaded, "tg:123", exportSnapshot(), "")
	if err != nil {
		t.Fatalf("writeExport failed: %v", err)
	}

	if filepath.Dir(saved) != tmpDir {
		t.Errorf("Expected export under %q, got %q", tmpDir, saved)
	}
	base := filepath.Base(saved)
	if !strings.HasPrefix(base, "tg-123-") || !strings.HasSuffix(base, ".json") {
		t.Errorf("Unexpected export file name %q", base)
	}
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("Export file not created: %v", err)
	}
}

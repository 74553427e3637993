package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bit-cook/ClawX/internal/chat"
	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/pathutil"

	"github.com/natefinch/atomic"
)

// exportDocument is the on-disk shape of a transcript export.
type exportDocument struct {
	SessionKey string         `json:"session_key"`
	ExportedAt time.Time      `json:"exported_at"`
	Messages   []chat.Message `json:"messages"`
}

// writeExport snapshots the transcript to a JSON file. An empty path picks a
// timestamped name under the configured export directory.
func writeExport(loaded *config.Config, sessionKey string, snap chat.Snapshot, path string) (string, error) {
	var err error
	if path == "" {
		path, err = config.ExportPath(loaded.Export.Dir, sessionKey, time.Now())
		if err != nil {
			return "", fmt.Errorf("resolve export path: %w", err)
		}
	} else {
		path, err = pathutil.Expand(path)
		if err != nil {
			return "", fmt.Errorf("expand export path: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}

	doc := exportDocument{
		SessionKey: sessionKey,
		ExportedAt: time.Now().UTC(),
		Messages:   snap.Messages,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

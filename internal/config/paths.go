package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bit-cook/ClawX/internal/pathutil"
)

// ResolveStateDir resolves the configured state directory.
// If empty, it falls back to ~/.clawx.
func ResolveStateDir(stateDir string) (string, error) {
	if trimmed := strings.TrimSpace(stateDir); trimmed != "" {
		return pathutil.Expand(trimmed)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".clawx"), nil
}

// DefaultConfigPath returns the global config file location.
func DefaultConfigPath() (string, error) {
	dir, err := ResolveStateDir("")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LockPath returns the lock file guarding a session against concurrent
// clawx instances.
func LockPath(stateDir, sessionKey string) (string, error) {
	dir, err := ResolveStateDir(stateDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "locks", sanitizeKey(sessionKey)+".lock"), nil
}

// ResolveExportDir resolves the configured transcript export directory.
// If empty, it falls back to <state dir>/exports.
func ResolveExportDir(exportDir string) (string, error) {
	if trimmed := strings.TrimSpace(exportDir); trimmed != "" {
		return pathutil.Expand(trimmed)
	}

	dir, err := ResolveStateDir("")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// ExportPath builds a timestamped export file name for a session.
func ExportPath(exportDir, sessionKey string, now time.Time) (string, error) {
	dir, err := ResolveExportDir(exportDir)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.json", sanitizeKey(sessionKey), now.UTC().Format("20060102-150405"))
	return filepath.Join(dir, name), nil
}

// sanitizeKey makes a session key safe to use as a file name. Keys may carry
// separators like "tg:123" that mean nothing on disk.
func sanitizeKey(key string) string {
	if key == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

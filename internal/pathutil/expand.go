package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves environment variables and "~/" home shortcuts.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := homeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if expanded == "~" {
			expanded = home
		} else {
			expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
		}
	}

	return filepath.Clean(expanded), nil
}

// homeDir resolves the home directory, rejecting values that are themselves
// unexpanded tildes (HOME=~ would otherwise survive Expand untouched).
func homeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil {
		if resolved, ok := usableHome(home); ok {
			return resolved, nil
		}
	}

	if current, err := user.Current(); err == nil {
		if resolved, ok := usableHome(current.HomeDir); ok {
			return resolved, nil
		}
	}

	envHome := strings.TrimSpace(os.Getenv("HOME"))
	if envHome == "" {
		return "", fmt.Errorf("HOME is not set")
	}
	if resolved, ok := usableHome(envHome); ok {
		return resolved, nil
	}
	return "", fmt.Errorf("HOME is not fully resolved: %s", envHome)
}

func usableHome(home string) (string, bool) {
	trimmed := strings.TrimSpace(home)
	if trimmed == "" || trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		return "", false
	}
	return trimmed, true
}

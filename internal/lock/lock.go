package lock

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/errors"
)

// SessionLock grants one clawx process exclusive use of a session key. The
// lock is advisory and dies with the process, so a leftover lock file from a
// crashed run never blocks the next one.
type SessionLock struct {
	fl         *flock.Flock
	path       string
	sessionKey string
	acquiredAt time.Time
	mu         sync.Mutex
}

// Config tunes how long Acquire keeps retrying before reporting the session
// as taken.
type Config struct {
	Timeout  time.Duration
	Retry    time.Duration
	MaxRetry int
}

func DefaultConfig() Config {
	timeout, _ := config.DurationOrDefault(config.DefaultLockTimeout, config.DefaultLockTimeout)
	retry, _ := config.DurationOrDefault(config.DefaultLockRetry, config.DefaultLockRetry)
	return Config{
		Timeout:  timeout,
		Retry:    retry,
		MaxRetry: config.DefaultLockMaxRetry,
	}
}

// Acquire takes the lock at path, retrying briefly so that back-to-back
// invocations (a previous instance still shutting down) succeed. It returns a
// conflict error once the retry budget is spent.
func Acquire(path, sessionKey string, cfg Config) (*SessionLock, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	sl := &SessionLock{
		fl:         flock.New(path),
		path:       path,
		sessionKey: sessionKey,
	}

	deadline := time.Now().Add(cfg.Timeout)
	for attempt := 0; attempt < cfg.MaxRetry; attempt++ {
		locked, err := sl.fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if locked {
			sl.acquiredAt = time.Now()
			slog.Debug("session lock acquired", "session_key", sessionKey, "path", path)
			return sl, nil
		}
		if time.Now().Add(cfg.Retry).After(deadline) {
			break
		}
		time.Sleep(cfg.Retry)
	}

	return nil, errors.Conflict(fmt.Sprintf("session %q is in use by another clawx instance", sessionKey))
}

// Release drops the lock. Safe to call more than once.
func (l *SessionLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fl == nil {
		return
	}

	held := time.Since(l.acquiredAt)
	if err := l.fl.Unlock(); err != nil {
		slog.Error("failed to release session lock", "session_key", l.sessionKey, "path", l.path, "error", err)
	} else {
		slog.Debug("session lock released", "session_key", l.sessionKey, "held_ms", held.Milliseconds())
	}
	l.fl = nil
}

// IsHeld reports whether this process still holds the lock.
func (l *SessionLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fl != nil
}

// HeldDuration reports how long the lock has been held.
func (l *SessionLock) HeldDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquiredAt.IsZero() {
		return 0
	}
	return time.Since(l.acquiredAt)
}

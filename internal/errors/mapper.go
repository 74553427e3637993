package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapError maps transport-level errors onto the ClawX taxonomy. Context
// cancellation passes through untouched so callers can tell a user abort from
// a wire failure.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrTransient)
	}

	if errors.Is(err, ErrGatewayClosed) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) {
		return err
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "use of closed network connection"), strings.Contains(errStr, "websocket: close"):
		return fmt.Errorf("connection closed: %w", ErrGatewayClosed)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("request timeout: %w", ErrTransient)

	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "broken pipe"), strings.Contains(errStr, "unreachable"),
		strings.Contains(errStr, "no such host"):
		return fmt.Errorf("network error: %w", ErrTransient)

	case strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid request"):
		return fmt.Errorf("invalid request: %w", ErrInvalidInput)

	default:
		return fmt.Errorf("internal error: %w", ErrInternal)
	}
}

// Wrap wraps an error with context, preserving its category
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Conflict wraps error as conflict
func Conflict(message string) error {
	return fmt.Errorf("%s: %w", message, ErrConflict)
}

// Transient wraps error as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// GatewayClosed wraps error as gateway closed
func GatewayClosed(message string) error {
	return fmt.Errorf("%s: %w", message, ErrGatewayClosed)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// IsRetryable checks if an error is transient, indicating the call can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient)
}

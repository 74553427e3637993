package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrInvalidInput - invalid argument or configuration (surface to the user, do not retry)
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict - another clawx process owns the resource (session lock held elsewhere)
	ErrConflict = errors.New("conflict")

	// ErrTransient - transient transport error (timeouts, resets; safe to retry a call)
	ErrTransient = errors.New("transient error")

	// ErrGatewayClosed - the gateway connection is gone for good; no further calls will succeed
	ErrGatewayClosed = errors.New("gateway closed")

	// ErrInternal - internal error (bug or unexpected wire data)
	ErrInternal = errors.New("internal error")
)

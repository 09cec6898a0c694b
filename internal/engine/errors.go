package engine

import (
	"context"
	"errors"
	"fmt"
)

// SaveErrorCode categorizes save failures.
type SaveErrorCode string

const (
	// ErrCodeTransient covers network failures, timeouts, and 5xx responses.
	// Recoverable: the next edit or manual flush retries the same snapshot.
	ErrCodeTransient SaveErrorCode = "TRANSIENT"

	// ErrCodeRejected covers validation failures and permission/auth expiry.
	// The snapshot is preserved locally, but an automatic retry of the same
	// payload would likely fail again until the user edits or re-auths.
	ErrCodeRejected SaveErrorCode = "REJECTED"
)

// SaveError is the typed failure reported by the save executor. It is the
// only error shape the controller surfaces to the UI - nothing throws up
// into the host's render path.
type SaveError struct {
	// Code identifies the error category.
	Code SaveErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SaveError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a SaveError for a recoverable failure.
func NewTransientError(message string, err error) *SaveError {
	return &SaveError{Code: ErrCodeTransient, Message: message, Err: err}
}

// NewRejectedError creates a SaveError for a validation or auth rejection.
func NewRejectedError(message string, err error) *SaveError {
	return &SaveError{Code: ErrCodeRejected, Message: message, Err: err}
}

// IsTransient returns true if the error is a transient save failure.
// Uses errors.As to handle wrapped errors.
func IsTransient(err error) bool {
	var se *SaveError
	if errors.As(err, &se) {
		return se.Code == ErrCodeTransient
	}
	return false
}

// IsRejected returns true if the error is a rejected save.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var se *SaveError
	if errors.As(err, &se) {
		return se.Code == ErrCodeRejected
	}
	return false
}

// classify converts an arbitrary save function error into a SaveError.
// A *SaveError passes through unchanged - hosts that can distinguish a
// validation rejection return one directly. Everything else defaults to
// transient so the failure is retried rather than discarded.
func classify(err error) *SaveError {
	var se *SaveError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransientError("save timed out", err)
	}
	return NewTransientError("save failed", err)
}

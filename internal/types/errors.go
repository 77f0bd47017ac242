package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by every storage backend when no row matches
// the requested StudentId.
var ErrNotFound = errors.New("student not found")

// ValidationError means the request was rejected before reaching the store.
// Message is safe to show to the caller as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps a connectivity or query failure. The wrapped error is
// for server-side logs only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError, e.g. NewStoreError("Create", "exec", err).
func NewStoreError(op, step string, err error) error {
	return &StoreError{Op: op, Err: fmt.Errorf("%s: %w", step, err)}
}

// Package core wires the memory subsystem together and exposes the
// operations used by the HTTP layer: turn handling, classification and
// fact acceptance.
package core

import (
	"errors"
	"fmt"

	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigurationUnavailable indicates that a required provider (chat or
	// embedding) was not initialized. Operations that need it degrade.
	ErrConfigurationUnavailable = errors.New("provider not configured")

	// ErrProviderFailure indicates that a call to an external provider failed
	// or timed out.
	ErrProviderFailure = errors.New("provider call failed")

	// ErrStoreCorrupt is storage.ErrStoreCorrupt.
	ErrStoreCorrupt = storage.ErrStoreCorrupt

	// ErrRecordIncomplete is storage.ErrRecordIncomplete.
	ErrRecordIncomplete = storage.ErrRecordIncomplete

	// ErrPersistence is storage.ErrPersistence.
	ErrPersistence = storage.ErrPersistence
)

// MemoryError wraps errors with operation context.
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "AcceptFact",
//	    Err: ErrConfigurationUnavailable,
//	}
//	// Error() returns: "avamem: AcceptFact: provider not configured"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "avamem: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("avamem: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("NewClient", err)
//	}
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}

// providerError marks err as a provider failure while keeping its text.
func providerError(op string, err error) error {
	return NewMemoryError(op, fmt.Errorf("%w: %v", ErrProviderFailure, err))
}

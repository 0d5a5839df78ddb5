package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a rejected argument: blank name, empty filter on a
	// mutating path, empty update payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotReady signals an operation issued before the service was initialized.
	ErrNotReady = errors.New("service not ready")
	// ErrStore signals a failure reported by the document store.
	ErrStore = errors.New("store operation failed")
	// ErrInitialization signals a fatal startup failure (missing endpoint or credential).
	ErrInitialization = errors.New("initialization failed")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
)

// InvalidInputf builds an error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// StoreError wraps a driver error with ErrStore, keeping the original message.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

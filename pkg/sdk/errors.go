package ordex

import "github.com/kailas-cloud/ordex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound       = domain.ErrNotFound
	ErrInvalidInput   = domain.ErrInvalidInput
	ErrNotReady       = domain.ErrNotReady
	ErrStore          = domain.ErrStore
	ErrInitialization = domain.ErrInitialization
	ErrAlreadyExists  = domain.ErrAlreadyExists
)

package domain

import "errors"

// Sentinel errors shared across services and handlers. Wrap with
// fmt.Errorf("op: %w", err) so errors.Is still matches at the API layer.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrTooManyStops       = errors.New("too many stops for one route")
	ErrRebuildFailed      = errors.New("route rebuild failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

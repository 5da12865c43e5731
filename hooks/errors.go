package hooks

import "errors"

// Sentinel errors for hooks.
var (
	ErrNilEngine = errors.New("hooks: engine is nil")
	ErrNilClient = errors.New("hooks: client is nil")
	ErrDisabled  = errors.New("hooks: query is disabled")
	ErrClosed    = errors.New("hooks: query is closed")
)

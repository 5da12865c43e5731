package config

import "errors"

var (
	ErrInvalidBackend  = errors.New("config: invalid session backend")
	ErrInvalidCodec    = errors.New("config: invalid session codec")
	ErrMissingPath     = errors.New("config: session path is required for the file backend")
	ErrMissingRedis    = errors.New("config: redis address is required for the redis backend")
	ErrInvalidDuration = errors.New("config: duration must not be negative")
	ErrInvalidLimit    = errors.New("config: limit must be positive")
)

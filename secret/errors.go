package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	ErrMissingEnv        = errors.New("secret: missing environment variables")
	ErrUnknownProvider   = errors.New("secret: provider not registered")
	ErrEmptySecret       = errors.New("secret: empty value")
	ErrInvalidReference  = errors.New("secret: invalid reference")
	ErrSecretUnavailable = errors.New("secret: unavailable")
)

package auth

import "errors"

// Sentinel errors for the session store.
var (
	ErrNoSession      = errors.New("auth: no session")
	ErrInvalidSession = errors.New("auth: invalid session")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrNilStorage     = errors.New("auth: storage is nil")

	// ErrForbidden is returned by Require when the session lacks a role.
	ErrForbidden = errors.New("auth: access denied")
)

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrUnauthorized matches every *AuthExpiredError.
	ErrUnauthorized = errors.New("api: unauthorized")

	// ErrInvalidRequest matches every *ValidationError.
	ErrInvalidRequest = errors.New("api: invalid request")

	// ErrInvalidBaseURL is returned by New for unusable base URLs.
	ErrInvalidBaseURL = errors.New("api: invalid base URL")
)

// NetworkError reports a request that got no response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a failure status from the server.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// ValidationError reports a client-side constraint violation or a response
// that breaks the data contract.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("api: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

// AuthExpiredError reports a 401. It is handled centrally and never stored
// on a cache entry.
type AuthExpiredError struct {
	Path string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("api: %s: session expired", e.Path)
}

func (e *AuthExpiredError) Unwrap() error { return ErrUnauthorized }

// IsAuthExpired reports whether err is, or wraps, an *AuthExpiredError.
func IsAuthExpired(err error) bool {
	var ae *AuthExpiredError
	return errors.As(err, &ae)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	if IsAuthExpired(err) {
		return http.StatusUnauthorized
	}
	return 0
}

// IsRetryable reports whether a failed fetch is worth retrying: transport
// failures other than caller cancellation, 5xx, 408, and 429.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		switch {
		case he.Status >= 500,
			he.Status == http.StatusRequestTimeout,
			he.Status == http.StatusTooManyRequests:
			return true
		}
	}
	return false
}

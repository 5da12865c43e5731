package cache

import (
	"errors"
	"time"
)

// Policy configures how a key is revalidated.
type Policy struct {
	// RefreshInterval is the period of automatic revalidation while the key
	// has subscribers. Zero disables interval revalidation.
	RefreshInterval time.Duration

	// RevalidateOnFocus revalidates when the dashboard regains focus.
	RevalidateOnFocus bool

	// RevalidateOnReconnect revalidates when connectivity returns.
	RevalidateOnReconnect bool

	// DedupingInterval collapses triggers that arrive within this window of
	// the last dispatched request.
	DedupingInterval time.Duration

	// ErrorRetryCount is the number of retries after a failed fetch.
	// Zero disables retrying.
	ErrorRetryCount int

	// ErrorRetryInterval is the base delay between retries; later retries
	// back off exponentially from it.
	ErrorRetryInterval time.Duration
}

// Policy validation errors.
var (
	ErrNegativeInterval   = errors.New("cache: policy interval must not be negative")
	ErrNegativeRetryCount = errors.New("cache: policy retry count must not be negative")
)

// DefaultPolicy returns the dashboard-wide defaults.
// Focus and reconnect revalidation on, 2s deduping, 3 retries from 5s,
// no interval refresh.
func DefaultPolicy() Policy {
	return Policy{
		RevalidateOnFocus:     true,
		RevalidateOnReconnect: true,
		DedupingInterval:      2 * time.Second,
		ErrorRetryCount:       3,
		ErrorRetryInterval:    5 * time.Second,
	}
}

// StaticPolicy returns a policy for data that never revalidates on its own.
// Only explicit refreshes reach the network.
func StaticPolicy() Policy {
	return Policy{
		DedupingInterval:   2 * time.Second,
		ErrorRetryCount:    3,
		ErrorRetryInterval: 5 * time.Second,
	}
}

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.RefreshInterval < 0 || p.DedupingInterval < 0 || p.ErrorRetryInterval < 0 {
		return ErrNegativeInterval
	}
	if p.ErrorRetryCount < 0 {
		return ErrNegativeRetryCount
	}
	return nil
}

// ShouldRefresh reports whether interval revalidation is enabled.
func (p Policy) ShouldRefresh() bool {
	return p.RefreshInterval > 0
}

// ShouldRetry reports whether failed fetches are retried.
func (p Policy) ShouldRetry() bool {
	return p.ErrorRetryCount > 0
}

// WithinDedupe reports whether a trigger at now falls inside the deduping
// window of a request dispatched at last.
func (p Policy) WithinDedupe(last, now time.Time) bool {
	if last.IsZero() || p.DedupingInterval <= 0 {
		return false
	}
	return now.Sub(last) < p.DedupingInterval
}

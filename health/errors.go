package health

import "errors"

var (
	// ErrCheckFailed marks a failed check that has no underlying error.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for checks that outlive the aggregator
	// timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: checker not found")
)

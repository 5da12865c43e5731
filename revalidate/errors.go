package revalidate

import "errors"

// Sentinel errors for the engine.
var (
	ErrNilStore      = errors.New("revalidate: store is nil")
	ErrNilFetcher    = errors.New("revalidate: fetcher is nil")
	ErrNotSubscribed = errors.New("revalidate: key has no subscribers")
	ErrClosed        = errors.New("revalidate: engine closed")
)

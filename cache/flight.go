package cache

import (
	"context"
	"sync"
	"time"
)

// Flight is one in-progress request for a key. Every caller that joins the
// flight receives the same result.
type Flight struct {
	// Key is the cache key the flight was started for.
	Key string

	// Seq orders the flight against other writes to the same key.
	Seq uint64

	// StartedAt is when the flight began.
	StartedAt time.Time

	once sync.Once
	done chan struct{}
	data any
	err  error
}

func newFlight(key string, seq uint64, now time.Time) *Flight {
	return &Flight{
		Key:       key,
		Seq:       seq,
		StartedAt: now,
		done:      make(chan struct{}),
	}
}

// Done is closed once the flight has a result.
func (f *Flight) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the flight completes or ctx is done.
// Cancelling ctx does not cancel the flight.
func (f *Flight) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Finished reports whether the flight has a result.
func (f *Flight) Finished() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Flight) resolve(data any, err error) {
	f.once.Do(func() {
		f.data = data
		f.err = err
		close(f.done)
	})
}

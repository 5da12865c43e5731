package cache

import (
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// ValidateKey checks if a key is usable as a cache key.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Entry is an immutable snapshot of one cached resource.
//
// Entries are never modified after they are published; every write builds
// a new Entry. Listeners may retain the pointer.
type Entry struct {
	// Key is the cache key.
	Key string

	// Data is the last successfully applied value. It is only meaningful
	// when HasData is true.
	Data    any
	HasData bool

	// Err is the error of the last failed fetch. A successful fetch or a
	// mutation clears it.
	Err error

	// FetchedAt is when data was last applied from the network. Mutations
	// do not change it.
	FetchedAt time.Time

	// Flight is the request in progress for this key, or nil.
	Flight *Flight

	// Seq is the sequence number of the last applied write.
	Seq uint64

	// Version increases with every replacement of any entry in the store.
	Version uint64
}

// InFlight reports whether a request for the key is in progress.
func (e *Entry) InFlight() bool {
	return e != nil && e.Flight != nil
}

// Settled reports whether a fetch has completed for this key at least once,
// successfully or not.
func (e *Entry) Settled() bool {
	return e != nil && (!e.FetchedAt.IsZero() || e.Err != nil)
}

// Mutation modifies a copy of an entry inside Store.Set.
type Mutation func(*Entry)

// WithData sets the entry data.
func WithData(v any) Mutation {
	return func(e *Entry) {
		e.Data = v
		e.HasData = true
	}
}

// WithError sets the entry error. Data is kept.
func WithError(err error) Mutation {
	return func(e *Entry) {
		e.Err = err
	}
}

// ClearError removes the entry error.
func ClearError() Mutation {
	return func(e *Entry) {
		e.Err = nil
	}
}

// WithFetchedAt sets the fetch timestamp.
func WithFetchedAt(t time.Time) Mutation {
	return func(e *Entry) {
		e.FetchedAt = t
	}
}

// ClearData drops the entry data.
func ClearData() Mutation {
	return func(e *Entry) {
		e.Data = nil
		e.HasData = false
	}
}

package auth

import (
	"context"
	"sync"

	"github.com/jonwraymond/gymcache/codec"
)

// Storage persists the session across restarts.
//
// Contract:
// - Load returns ErrNoSession when nothing is stored.
// - Clear on an empty storage is not an error.
// - Implementations must be safe for concurrent use.
type Storage interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the session in memory. It does not survive restarts
// and exists for tests and ephemeral CLIs.
type MemoryStorage struct {
	mu  sync.Mutex
	s   Session
	set bool
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Session{}, ErrNoSession
	}
	return m.s, nil
}

func (m *MemoryStorage) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s, m.set = s, true
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s, m.set = Session{}, false
	return nil
}

func sessionCodec(c codec.Codec[Session]) codec.Codec[Session] {
	if c == nil {
		return codec.JSON[Session]{}
	}
	return c
}

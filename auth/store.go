package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/observe"
)

// ChangeFunc observes session transitions. It runs synchronously after the
// change is persisted, outside the store's lock.
type ChangeFunc func(s Session, state State)

// Store owns the single active session.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ownership: Session values are copies; mutate through Set and UpdateUser.
type Store struct {
	storage Storage
	logger  observe.Logger
	now     func() time.Time

	mu        sync.RWMutex
	session   Session
	state     State
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn ChangeFunc
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates a Store and hydrates it from storage. A missing, unreadable,
// or expired persisted session leaves the store Anonymous; unreadable and
// expired sessions are also removed from storage. Only storage I/O failures
// are returned.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, ErrNilStorage
	}
	s := &Store{
		storage: storage,
		logger:  observe.NopLogger{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	sess, err := storage.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		return s, nil
	case errors.Is(err, ErrInvalidSession):
		s.logger.Warn(ctx, "discarding unreadable session", observe.F("error", err))
		return s, storage.Clear(ctx)
	case err != nil:
		return nil, fmt.Errorf("auth: hydrate: %w", err)
	}

	if err := sess.Validate(); err != nil {
		s.logger.Warn(ctx, "discarding invalid session")
		return s, storage.Clear(ctx)
	}
	if err := checkToken(sess.Token, s.now()); err != nil {
		s.logger.Info(ctx, "persisted session expired", observe.F("user_id", sess.User.ID))
		return s, storage.Clear(ctx)
	}

	s.session, s.state = sess, Authenticated
	s.logger.Debug(ctx, "session restored", observe.F("user_id", sess.User.ID))
	return s, nil
}

// Token returns the session token (getToken).
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated {
		return "", false
	}
	return s.session.Token, true
}

// Session returns the current session and whether one is active.
func (s *Store) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.state == Authenticated
}

// User returns the session user snapshot.
func (s *Store) User() (api.User, bool) {
	sess, ok := s.Session()
	return sess.User, ok
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set persists a new session and moves to Authenticated (setSession). It
// replaces any previous session.
func (s *Store) Set(ctx context.Context, token string, user api.User) error {
	sess := Session{Token: token, User: user}
	if err := sess.Validate(); err != nil {
		return err
	}
	if err := checkToken(token, s.now()); err != nil {
		return err
	}
	if err := s.storage.Save(ctx, sess); err != nil {
		return err
	}

	s.mu.Lock()
	s.session, s.state = sess, Authenticated
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Info(ctx, "session started", observe.F("user_id", user.ID), observe.F("username", user.Username))
	notify(listeners, sess, Authenticated)
	return nil
}

// UpdateUser replaces the user snapshot of the active session.
func (s *Store) UpdateUser(ctx context.Context, user api.User) error {
	s.mu.RLock()
	sess, state := s.session, s.state
	s.mu.RUnlock()
	if state != Authenticated {
		return ErrNoSession
	}
	if user.ID != sess.User.ID {
		return fmt.Errorf("%w: user %d does not own this session", ErrInvalidSession, user.ID)
	}
	sess.User = user
	if err := s.storage.Save(ctx, sess); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != Authenticated || s.session.Token != sess.Token {
		// Cleared or replaced while saving; the newer state wins.
		s.mu.Unlock()
		return ErrNoSession
	}
	s.session = sess
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, sess, Authenticated)
	return nil
}

// Clear destroys the session and moves to Anonymous (clearSession). The
// in-memory session is dropped even when storage fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	was := s.state
	s.session, s.state = Session{}, Anonymous
	listeners := s.listeners
	s.mu.Unlock()

	err := s.storage.Clear(ctx)
	if was == Authenticated {
		s.logger.Info(ctx, "session cleared")
		notify(listeners, Session{}, Anonymous)
	}
	return err
}

// OnChange registers fn for every transition and returns a function that
// removes it.
func (s *Store) OnChange(fn ChangeFunc) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	// Copy on write; notify iterates a snapshot without the lock.
	next := make([]listener, len(s.listeners), len(s.listeners)+1)
	copy(next, s.listeners)
	s.listeners = append(next, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			next := make([]listener, 0, len(s.listeners))
			for _, l := range s.listeners {
				if l.id != id {
					next = append(next, l)
				}
			}
			s.listeners = next
		})
	}
}

// HasRole reports whether the session user has role.
func (s *Store) HasRole(role api.Role) bool {
	u, ok := s.User()
	return ok && u.Role == role
}

// IsAdmin reports whether the session user is an administrator.
func (s *Store) IsAdmin() bool { return s.HasRole(api.RoleAdmin) }

// Require returns ErrNoSession when anonymous and ErrForbidden when the
// session user lacks role.
func (s *Store) Require(role api.Role) error {
	u, ok := s.User()
	if !ok {
		return ErrNoSession
	}
	if u.Role != role {
		return fmt.Errorf("%w: requires %s", ErrForbidden, role)
	}
	return nil
}

func notify(listeners []listener, s Session, state State) {
	for _, l := range listeners {
		l.fn(s, state)
	}
}

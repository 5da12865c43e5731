package hooks

import (
	"context"
	"sync"

	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/cache"
	"github.com/jonwraymond/gymcache/revalidate"
)

// State is one consistent view of a query.
type State[T any] struct {
	Data            T
	HasData         bool
	IsLoading       bool
	IsValidating    bool
	Err             error
	Unauthenticated bool
}

// IsError reports whether the last fetch failed.
func (s State[T]) IsError() bool { return s.Err != nil }

// Query follows one cache key.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Listeners: run synchronously after each state change, outside the
// query's lock, and may call back into the query.
type Query[T any] struct {
	key     string
	engine  *revalidate.Engine
	session *auth.Store
	empty   T

	mu        sync.Mutex
	state     State[T]
	version   uint64
	changed   chan struct{}
	listeners map[int]func(State[T])
	nextID    int
	closed    bool
	cleanup   []func()
}

type queryConfig[T any] struct {
	key     string
	fetcher revalidate.Fetcher
	policy  cache.Policy
	empty   T
}

func newQuery[T any](env Env, cfg queryConfig[T]) (*Query[T], error) {
	q := &Query[T]{
		key:       cfg.key,
		engine:    env.Engine,
		session:   env.Session,
		empty:     cfg.empty,
		state:     State[T]{Data: cfg.empty},
		changed:   make(chan struct{}),
		listeners: make(map[int]func(State[T])),
	}
	if cfg.key == "" {
		return q, nil
	}

	store := env.Engine.Store()
	q.cleanup = append(q.cleanup, store.Subscribe(cfg.key, q.onEntry))

	release, err := env.Engine.Subscribe(cfg.key, authGate{Fetcher: cfg.fetcher, session: env.Session}, cfg.policy)
	if err != nil {
		q.Close()
		return nil, err
	}
	q.cleanup = append(q.cleanup, release)

	if env.Session != nil {
		q.cleanup = append(q.cleanup, env.Session.OnChange(q.onSession))
	}
	q.update(store.Get(cfg.key), true)
	return q, nil
}

func (q *Query[T]) onEntry(e *cache.Entry) { q.update(e, false) }

func (q *Query[T]) onSession(_ auth.Session, state auth.State) {
	q.mu.Lock()
	wasAnonymous := q.state.Unauthenticated
	q.mu.Unlock()

	q.update(q.engine.Store().Get(q.key), true)
	if wasAnonymous && state == auth.Authenticated {
		go func() { _, _ = q.engine.Revalidate(context.Background(), q.key) }()
	}
}

// update recomputes the state from e. Entries older than the last one seen
// are ignored unless force is set.
func (q *Query[T]) update(e *cache.Entry, force bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if e != nil {
		if e.Version < q.version && !force {
			q.mu.Unlock()
			return
		}
		if e.Version > q.version {
			q.version = e.Version
		}
	}
	q.state = q.compute(e)
	st := q.state
	close(q.changed)
	q.changed = make(chan struct{})
	listeners := make([]func(State[T]), 0, len(q.listeners))
	for _, fn := range q.listeners {
		listeners = append(listeners, fn)
	}
	q.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func (q *Query[T]) compute(e *cache.Entry) State[T] {
	st := State[T]{Data: q.empty}
	if q.session != nil && q.session.State() != auth.Authenticated {
		st.Unauthenticated = true
	}
	if e == nil {
		return st
	}
	if e.HasData {
		if v, ok := e.Data.(T); ok {
			st.Data, st.HasData = v, true
		}
	}
	st.Err = e.Err
	st.IsValidating = e.InFlight()
	st.IsLoading = e.InFlight() && !e.Settled()
	return st
}

// Key returns the cache key, or "" for a disabled query.
func (q *Query[T]) Key() string { return q.key }

// Enabled reports whether the query fetches.
func (q *Query[T]) Enabled() bool { return q.key != "" }

// Snapshot returns the current state.
func (q *Query[T]) Snapshot() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Data returns the current data, or the empty value.
func (q *Query[T]) Data() T { return q.Snapshot().Data }

// IsLoading reports whether the first fetch is still pending.
func (q *Query[T]) IsLoading() bool { return q.Snapshot().IsLoading }

// IsValidating reports whether a request is in flight.
func (q *Query[T]) IsValidating() bool { return q.Snapshot().IsValidating }

// IsError reports whether the last fetch failed.
func (q *Query[T]) IsError() bool { return q.Snapshot().Err != nil }

// Err returns the last fetch error.
func (q *Query[T]) Err() error { return q.Snapshot().Err }

// Mutate writes v to the cache without a network round-trip. Every
// subscriber of the key sees v before Mutate returns.
func (q *Query[T]) Mutate(v T) error {
	if !q.Enabled() {
		return ErrDisabled
	}
	_, err := q.engine.Mutate(q.key, v)
	return err
}

// Refresh revalidates immediately, ignoring the deduping window, and
// returns the fetched data.
func (q *Query[T]) Refresh(ctx context.Context) (T, error) {
	if !q.Enabled() {
		return q.empty, ErrDisabled
	}
	v, err := q.engine.Refresh(ctx, q.key)
	if err != nil {
		return q.empty, err
	}
	t, _ := v.(T)
	return t, nil
}

// Subscribe registers fn for every state change.
func (q *Query[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.listeners[id] = fn
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.listeners, id)
			q.mu.Unlock()
		})
	}
}

// Wait blocks until the query is no longer loading, then returns its state.
func (q *Query[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		q.mu.Lock()
		st, ch, closed := q.state, q.changed, q.closed
		q.mu.Unlock()
		if closed {
			return st, ErrClosed
		}
		if !st.IsLoading {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close releases the query's subscriptions. It is safe to call more than
// once.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	cleanup := q.cleanup
	q.cleanup = nil
	close(q.changed)
	q.changed = make(chan struct{})
	q.mu.Unlock()

	for _, fn := range cleanup {
		fn()
	}
}

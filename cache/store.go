package cache

import (
	"sort"
	"sync"
	"time"
)

// Listener receives the new entry after every write to a subscribed key.
// Listeners run synchronously in the writer's goroutine, after the store
// lock is released, and may call back into the store.
type Listener func(*Entry)

// Store is the process-wide cache store.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Consistency: all listeners of a key observe the same *Entry per write.
// - Ordering: a write is applied only if its sequence number is newer than
// the entry's last applied sequence.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	subs    map[string]map[uint64]Listener
	nextSub uint64
	seq     uint64
	floor   uint64
	version uint64
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for fetch timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		subs:    make(map[string]map[uint64]Listener),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current entry for key, or nil if none exists.
func (s *Store) Get(key string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key]
}

// Keys returns the keys that currently have an entry, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Set applies mutations to a copy of the key's entry, publishes it, and
// notifies subscribers before returning.
func (s *Store) Set(key string, muts ...Mutation) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	next := s.copyLocked(key)
	for _, m := range muts {
		m(next)
	}
	listeners := s.publishLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return next, nil
}

// Subscribe registers a listener for key. The returned function removes it
// and is safe to call more than once.
func (s *Store) Subscribe(key string, fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]Listener)
	}
	s.subs[key][id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[key], id)
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}

// Subscribers returns the number of listeners registered for key.
func (s *Store) Subscribers(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[key])
}

// NextSeq reserves a sequence number for a write that has not happened yet.
// Writers that fetch outside Begin and Finish reserve a number before the
// request starts and hand it to Apply with the result, so a slower older
// response cannot overwrite a newer one.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Apply writes a fetch result under seq. A nil err stores data, clears the
// error, and stamps FetchedAt; a non-nil err stores the error and keeps the
// data. It returns false, and changes nothing, when seq is not newer than
// the entry's applied sequence. Begin and Finish use the same guard.
func (s *Store) Apply(key string, seq uint64, data any, err error) (bool, error) {
	if verr := ValidateKey(key); verr != nil {
		return false, verr
	}

	s.mu.Lock()
	next, ok := s.applyLocked(key, seq, data, err)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	listeners := s.publishLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return true, nil
}

// Mutate writes data under a fresh sequence number without a network
// round-trip. The error is cleared, FetchedAt and any in-flight request are
// kept. A flight started before the mutation will not overwrite it.
func (s *Store) Mutate(key string, data any) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.seq++
	next := s.copyLocked(key)
	next.Data = data
	next.HasData = true
	next.Err = nil
	next.Seq = s.seq
	listeners := s.publishLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return next, nil
}

// Begin returns the key's in-flight request, or starts a new one.
// started is true when the caller owns the new flight and must complete it
// with Finish or Abandon.
func (s *Store) Begin(key string) (f *Flight, started bool, err error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	if cur := s.entries[key]; cur != nil && cur.Flight != nil {
		s.mu.Unlock()
		return cur.Flight, false, nil
	}

	s.seq++
	f = newFlight(key, s.seq, s.now())
	next := s.copyLocked(key)
	next.Flight = f
	listeners := s.publishLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return f, true, nil
}

// Finish completes a flight. The in-flight marker is cleared if it still
// points at f, and the result is applied if f is newer than the entry's
// applied sequence. Subscribers are notified before waiters on f receive
// data and err.
func (s *Store) Finish(f *Flight, data any, err error) (applied bool) {
	s.mu.Lock()
	next, applied := s.applyLocked(f.Key, f.Seq, data, err)
	if !applied {
		next = s.copyLocked(f.Key)
	}
	cleared := next.Flight == f
	if cleared {
		next.Flight = nil
	}

	var listeners []Listener
	if applied || cleared {
		listeners = s.publishLocked(next)
	}
	s.mu.Unlock()

	if listeners != nil {
		notify(listeners, next)
	}
	f.resolve(data, err)
	return applied
}

// Abandon completes a flight without touching data or error. Waiters
// receive err.
func (s *Store) Abandon(f *Flight, err error) {
	s.mu.Lock()
	var (
		next      *Entry
		listeners []Listener
	)
	if cur := s.entries[f.Key]; cur != nil && cur.Flight == f {
		next = s.copyLocked(f.Key)
		next.Flight = nil
		listeners = s.publishLocked(next)
	}
	s.mu.Unlock()

	if next != nil {
		notify(listeners, next)
	}
	f.resolve(nil, err)
}

// Delete drops the entry for key. Subscribers are notified with an empty
// entry, and a flight in progress for key can no longer apply its result.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	cur := s.entries[key]
	if cur == nil {
		s.mu.Unlock()
		return
	}
	if len(s.subs[key]) == 0 && cur.Flight == nil {
		delete(s.entries, key)
		s.mu.Unlock()
		return
	}
	// Keep an empty entry so the flight's older sequence is rejected.
	s.seq++
	next := &Entry{Key: key, Seq: s.seq}
	listeners := s.publishLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
}

// Reset drops every entry. Subscribed keys are republished as empty
// entries so their listeners observe the reset. Flights begun before the
// reset can still be waited on, but their results are never applied.
func (s *Store) Reset() {
	s.mu.Lock()
	s.floor = s.seq
	s.entries = make(map[string]*Entry)

	type pending struct {
		entry     *Entry
		listeners []Listener
	}
	var out []pending
	for key := range s.subs {
		next := s.copyLocked(key)
		out = append(out, pending{entry: next, listeners: s.publishLocked(next)})
	}
	s.mu.Unlock()

	for _, p := range out {
		notify(p.listeners, p.entry)
	}
}

// copyLocked returns a mutable copy of the key's entry, or a fresh one.
func (s *Store) copyLocked(key string) *Entry {
	if cur := s.entries[key]; cur != nil {
		next := *cur
		return &next
	}
	return &Entry{Key: key, Seq: s.floor}
}

func (s *Store) applyLocked(key string, seq uint64, data any, err error) (*Entry, bool) {
	if seq <= s.floor {
		return nil, false
	}
	if cur := s.entries[key]; cur != nil && seq <= cur.Seq {
		return nil, false
	}

	next := s.copyLocked(key)
	next.Seq = seq
	if err != nil {
		next.Err = err
		return next, true
	}
	next.Data = data
	next.HasData = true
	next.Err = nil
	next.FetchedAt = s.now()
	return next, true
}

// publishLocked stores next and returns the listeners to notify.
func (s *Store) publishLocked(next *Entry) []Listener {
	s.version++
	next.Version = s.version
	s.entries[next.Key] = next

	subs := s.subs[next.Key]
	if len(subs) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	listeners := make([]Listener, len(ids))
	for i, id := range ids {
		listeners[i] = subs[id]
	}
	return listeners
}

func notify(listeners []Listener, e *Entry) {
	for _, fn := range listeners {
		fn(e)
	}
}

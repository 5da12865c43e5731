package revalidate

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/cache"
)

// gateFetcher counts calls and blocks each one until release is closed.
type gateFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	result  func(n int32) (any, error)
}

func newGateFetcher() *gateFetcher {
	return &gateFetcher{
		release: make(chan struct{}),
		result:  func(n int32) (any, error) { return int(n), nil },
	}
}

func (g *gateFetcher) Fetch(ctx context.Context, _ string) (any, error) {
	n := g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.result(n)
}

func (g *gateFetcher) open() { close(g.release) }

// openFetcher never blocks.
func openFetcher(fn func(n int32) (any, error)) (*gateFetcher, Fetcher) {
	g := newGateFetcher()
	g.result = fn
	g.open()
	return g, g
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{Store: cache.New()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func quietPolicy() cache.Policy {
	return cache.Policy{DedupingInterval: time.Minute}
}

func waitSettled(t *testing.T, s *cache.Store, key string) *cache.Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e := s.Get(key); e.Settled() && !e.InFlight() {
			return e
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("%s did not settle", key)
	return nil
}

func TestNew_NilStore(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilStore) {
		t.Errorf("New() error = %v, want ErrNilStore", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	e := newTestEngine(t)
	_, f := openFetcher(func(int32) (any, error) { return nil, nil })

	tests := []struct {
		name    string
		key     string
		fetcher Fetcher
		policy  cache.Policy
		want    error
	}{
		{"empty key", "", f, quietPolicy(), cache.ErrInvalidKey},
		{"nil fetcher", "/api/exercises", nil, quietPolicy(), ErrNilFetcher},
		{"bad policy", "/api/exercises", f, cache.Policy{ErrorRetryCount: -1}, cache.ErrNegativeRetryCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Subscribe(tt.key, tt.fetcher, tt.policy); !errors.Is(err, tt.want) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_ConcurrentMountsShareOneRequest(t *testing.T) {
	e := newTestEngine(t)
	g := newGateFetcher()
	key := "/api/exercises"

	const n = 25
	var wg sync.WaitGroup
	releases := make([]func(), n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := e.Subscribe(key, g, quietPolicy())
			if err != nil {
				t.Errorf("Subscribe() error = %v", err)
				return
			}
			releases[i] = release
		}()
	}
	wg.Wait()
	g.open()

	entry := waitSettled(t, e.Store(), key)
	if got := g.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	if entry.Data != 1 {
		t.Errorf("Data = %v, want 1", entry.Data)
	}
	for _, r := range releases {
		if r != nil {
			r()
		}
	}
	if e.Subscribed(key) {
		t.Error("Subscribed() = true after every release")
	}
}

func TestRefresh_JoinsInFlight(t *testing.T) {
	e := newTestEngine(t)
	g := newGateFetcher()
	key := "/api/routines"

	release, _ := e.Subscribe(key, g, quietPolicy())
	defer release()

	ctx := context.Background()
	results := make(chan any, 2)
	for i := 0; i < 2; i++ {
		go func() {
			v, _ := e.Refresh(ctx, key)
			results <- v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	g.open()

	for i := 0; i < 2; i++ {
		if v := <-results; v != 1 {
			t.Errorf("Refresh() = %v, want 1", v)
		}
	}
	if got := g.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestRevalidate_Dedupes(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	e, _ := New(Config{Store: cache.New(), Clock: clock})
	defer e.Close()
	g, f := openFetcher(func(n int32) (any, error) { return int(n), nil })
	key := "/api/users/1"
	policy := cache.Policy{DedupingInterval: 2 * time.Second}

	release, _ := e.Subscribe(key, f, policy)
	defer release()
	waitSettled(t, e.Store(), key)

	ctx := context.Background()
	v, err := e.Revalidate(ctx, key)
	if err != nil || v != 1 {
		t.Errorf("Revalidate() inside window = %v, %v, want 1, nil", v, err)
	}
	if got := g.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}

	advance(3 * time.Second)
	v, _ = e.Revalidate(ctx, key)
	if v != 2 {
		t.Errorf("Revalidate() after window = %v, want 2", v)
	}

	// Refresh ignores the window.
	v, _ = e.Refresh(ctx, key)
	if v != 3 {
		t.Errorf("Refresh() = %v, want 3", v)
	}
}

func TestRevalidate_NotSubscribed(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Revalidate(context.Background(), "/api/exercises"); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Revalidate() error = %v, want ErrNotSubscribed", err)
	}
}

func TestMutate_DuringFlight(t *testing.T) {
	e := newTestEngine(t)
	g := newGateFetcher()
	key := "/api/users/7"

	var seen []*cache.Entry
	unsub := e.Store().Subscribe(key, func(en *cache.Entry) { seen = append(seen, en) })
	defer unsub()

	release, _ := e.Subscribe(key, g, quietPolicy())
	defer release()

	entry, err := e.Mutate(key, "optimistic")
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if last := seen[len(seen)-1]; last != entry || last.Data != "optimistic" {
		t.Errorf("listener saw %+v, want the mutated entry", last)
	}
	if !entry.InFlight() {
		t.Error("Mutate() cleared the in-flight request")
	}

	g.open()
	time.Sleep(20 * time.Millisecond)
	// The flight began before the mutation, so its result is discarded.
	if got := e.Store().Get(key).Data; got != "optimistic" {
		t.Errorf("Data = %v, want optimistic", got)
	}
}

func TestRetry_ThenSurfaceError(t *testing.T) {
	e := newTestEngine(t)
	boom := &api.HTTPError{Status: http.StatusBadGateway, Message: "upstream"}
	g, f := openFetcher(func(int32) (any, error) { return nil, boom })
	key := "/api/exercises"

	release, _ := e.Subscribe(key, f, cache.Policy{
		ErrorRetryCount:    2,
		ErrorRetryInterval: time.Millisecond,
	})
	defer release()

	entry := waitSettled(t, e.Store(), key)
	if got := g.calls.Load(); got != 3 {
		t.Errorf("fetch calls = %d, want 3", got)
	}
	if !errors.Is(entry.Err, boom) {
		t.Errorf("Err = %v, want %v", entry.Err, boom)
	}

	time.Sleep(20 * time.Millisecond)
	if got := g.calls.Load(); got != 3 {
		t.Errorf("fetch calls after exhaustion = %d, want 3", got)
	}
}

func TestRetry_SkipsClientErrors(t *testing.T) {
	e := newTestEngine(t)
	notFound := &api.HTTPError{Status: http.StatusNotFound, Message: "gone"}
	g, f := openFetcher(func(int32) (any, error) { return nil, notFound })
	key := "/api/users/99"

	release, _ := e.Subscribe(key, f, cache.Policy{ErrorRetryCount: 3, ErrorRetryInterval: time.Millisecond})
	defer release()

	waitSettled(t, e.Store(), key)
	if got := g.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestAuthExpired_NotStored(t *testing.T) {
	e := newTestEngine(t)
	expired := &api.AuthExpiredError{Path: "/api/users/1"}
	_, f := openFetcher(func(int32) (any, error) { return nil, expired })
	key := "/api/users/1"

	release, _ := e.Subscribe(key, f, cache.Policy{ErrorRetryCount: 3, ErrorRetryInterval: time.Millisecond})
	defer release()

	_, err := e.Refresh(context.Background(), key)
	if !api.IsAuthExpired(err) {
		t.Errorf("Refresh() error = %v, want AuthExpiredError", err)
	}
	entry := e.Store().Get(key)
	if entry.Err != nil || entry.InFlight() {
		t.Errorf("entry = %+v, want no error and no flight", entry)
	}
}

func TestInterval_StopsOnRelease(t *testing.T) {
	e := newTestEngine(t)
	g, f := openFetcher(func(n int32) (any, error) { return int(n), nil })
	key := "/api/routines"

	release, _ := e.Subscribe(key, f, cache.Policy{RefreshInterval: 5 * time.Millisecond})
	time.Sleep(60 * time.Millisecond)
	release()
	time.Sleep(10 * time.Millisecond)

	after := g.calls.Load()
	if after < 3 {
		t.Errorf("fetch calls = %d, want interval revalidation", after)
	}
	time.Sleep(40 * time.Millisecond)
	if got := g.calls.Load(); got != after {
		t.Errorf("fetch calls grew from %d to %d after release", after, got)
	}
}

func TestInterval_JoinsInFlight(t *testing.T) {
	e := newTestEngine(t)
	g := newGateFetcher()
	key := "/api/exercises"

	release, err := e.Subscribe(key, g, cache.Policy{RefreshInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer release()

	time.Sleep(40 * time.Millisecond)
	if got := g.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 while the first request is open", got)
	}
	if !e.Store().Get(key).InFlight() {
		t.Error("InFlight() = false, want true")
	}

	g.open()
	waitSettled(t, e.Store(), key)
	deadline := time.Now().Add(2 * time.Second)
	for g.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := g.calls.Load(); got < 2 {
		t.Errorf("fetch calls = %d, want ticks to resume after settling", got)
	}
}

func TestInterval_PausedWhileHidden(t *testing.T) {
	e := newTestEngine(t)
	g, f := openFetcher(func(n int32) (any, error) { return int(n), nil })
	key := "/api/routines"

	release, _ := e.Subscribe(key, f, cache.Policy{RefreshInterval: 5 * time.Millisecond})
	defer release()
	waitSettled(t, e.Store(), key)

	e.NotifyBlur()
	if !e.Paused() {
		t.Error("Paused() = false after NotifyBlur")
	}
	time.Sleep(10 * time.Millisecond)
	before := g.calls.Load()
	time.Sleep(40 * time.Millisecond)
	if got := g.calls.Load(); got != before {
		t.Errorf("fetch calls grew from %d to %d while hidden", before, got)
	}
}

func TestNotifyFocusAndReconnect(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	focusG, focusF := openFetcher(func(n int32) (any, error) { return int(n), nil })
	staticG, staticF := openFetcher(func(n int32) (any, error) { return int(n), nil })

	r1, _ := e.Subscribe("/api/users/1", focusF, cache.Policy{RevalidateOnFocus: true, RevalidateOnReconnect: true})
	defer r1()
	r2, _ := e.Subscribe("/api/exercises", staticF, cache.Policy{})
	defer r2()
	waitSettled(t, e.Store(), "/api/users/1")
	waitSettled(t, e.Store(), "/api/exercises")

	if err := e.NotifyFocus(ctx); err != nil {
		t.Fatalf("NotifyFocus() error = %v", err)
	}
	if got := focusG.calls.Load(); got != 2 {
		t.Errorf("focus key calls = %d, want 2", got)
	}
	if got := staticG.calls.Load(); got != 1 {
		t.Errorf("static key calls = %d, want 1", got)
	}

	e.NotifyOffline()
	if e.Online() {
		t.Error("Online() = true after NotifyOffline")
	}
	if err := e.NotifyFocus(ctx); err != nil {
		t.Fatalf("NotifyFocus() error = %v", err)
	}
	if got := focusG.calls.Load(); got != 2 {
		t.Errorf("focus while offline calls = %d, want 2", got)
	}

	if err := e.NotifyReconnect(ctx); err != nil {
		t.Fatalf("NotifyReconnect() error = %v", err)
	}
	if got := focusG.calls.Load(); got != 3 {
		t.Errorf("reconnect calls = %d, want 3", got)
	}
}

func TestClose(t *testing.T) {
	e, _ := New(Config{Store: cache.New()})
	g := newGateFetcher()
	key := "/api/exercises"

	release, _ := e.Subscribe(key, g, quietPolicy())
	entry := e.Store().Get(key)

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	release()

	if _, err := entry.Flight.Wait(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("flight error = %v, want ErrClosed", err)
	}
	if _, err := e.Subscribe(key, g, quietPolicy()); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe() after Close error = %v, want ErrClosed", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"validation", &api.ValidationError{Field: "name", Reason: "required"}, false},
		{"auth expired", &api.AuthExpiredError{Path: "/x"}, false},
		{"not found", &api.HTTPError{Status: 404}, false},
		{"too many requests", &api.HTTPError{Status: 429}, true},
		{"server", &api.HTTPError{Status: 503}, true},
		{"network", &api.NetworkError{Err: errors.New("refused")}, true},
		{"other", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

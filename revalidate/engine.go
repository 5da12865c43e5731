package revalidate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/cache"
	"github.com/jonwraymond/gymcache/observe"
	"github.com/jonwraymond/gymcache/resilience"
)

// Config configures an Engine.
type Config struct {
	// Store is the cache the engine revalidates. Required.
	Store *cache.Store

	// Logger receives the global success and failure lines.
	Logger observe.Logger

	// Metrics records deduplicated triggers.
	Metrics observe.Metrics

	// MaxConcurrent bounds the number of fetches running at once.
	// Default: 8
	MaxConcurrent int

	// AttemptTimeout bounds each fetch attempt. Zero disables it.
	AttemptTimeout time.Duration

	// OnSuccess and OnError run after every settled revalidation, in the
	// fetch goroutine.
	OnSuccess func(key string, data any)
	OnError   func(key string, err error)

	// Clock is the time source for the deduping window.
	Clock func() time.Time
}

// Engine applies revalidation policies to subscribed keys.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Coalescing: at most one request per key is outstanding.
// - Lifecycle: Close stops every timer and waits for running fetches.
type Engine struct {
	store     *cache.Store
	logger    observe.Logger
	metrics   observe.Metrics
	attempt   *resilience.Executor
	bulkhead  *resilience.Bulkhead
	onSuccess func(string, any)
	onError   func(string, error)
	now       func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	keys    map[string]*keyState
	hidden  bool
	offline bool
	closed  bool
}

type keyState struct {
	key      string
	resource string
	fetcher  Fetcher
	policy   cache.Policy
	stop     chan struct{}

	// Guarded by Engine.mu.
	refs       int
	last       time.Time
	lastFlight *cache.Flight
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.MaxConcurrent})
	base, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:    cfg.Store,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		bulkhead: bulkhead,
		attempt: resilience.NewExecutor(
			resilience.WithBulkhead(bulkhead),
			resilience.WithTimeout(cfg.AttemptTimeout),
		),
		onSuccess: cfg.OnSuccess,
		onError:   cfg.OnError,
		now:       cfg.Clock,
		base:      base,
		cancel:    cancel,
		keys:      make(map[string]*keyState),
	}, nil
}

// Store returns the engine's cache store.
func (e *Engine) Store() *cache.Store { return e.store }

// Subscribe activates key. The first subscription registers fetcher and
// policy for the key and starts its ticker; later subscriptions share them.
// Every subscription fires a deduplicated mount revalidation.
//
// release stops the key's ticker once the last subscription is released.
// A request already in flight keeps running and its result is applied.
func (e *Engine) Subscribe(key string, fetcher Fetcher, policy cache.Policy) (release func(), err error) {
	if err := cache.ValidateKey(key); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	ks := e.keys[key]
	if ks == nil {
		ks = &keyState{
			key:      key,
			resource: resourceOf(fetcher, key),
			fetcher:  fetcher,
			policy:   policy,
			stop:     make(chan struct{}),
		}
		e.keys[key] = ks
		if policy.ShouldRefresh() {
			e.wg.Add(1)
			go e.poll(ks)
		}
	}
	ks.refs++
	e.mu.Unlock()

	if _, err := e.dispatch(ks, TriggerMount); err != nil {
		e.release(ks)
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { e.release(ks) }) }, nil
}

func (e *Engine) release(ks *keyState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ks.refs--
	if ks.refs > 0 || e.keys[ks.key] != ks {
		return
	}
	delete(e.keys, ks.key)
	close(ks.stop)
}

// poll revalidates ks every RefreshInterval until its last subscriber
// releases or the engine closes. Ticks are skipped while paused; a tick
// that lands during a request joins it.
func (e *Engine) poll(ks *keyState) {
	defer e.wg.Done()
	t := time.NewTicker(ks.policy.RefreshInterval)
	defer t.Stop()

	for {
		select {
		case <-ks.stop:
			return
		case <-e.base.Done():
			return
		case <-t.C:
			if e.Paused() {
				continue
			}
			if _, err := e.dispatch(ks, TriggerInterval); err != nil {
				return
			}
		}
	}
}

// Subscribed reports whether key has at least one subscription.
func (e *Engine) Subscribed(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keys[key] != nil
}

// Keys returns the subscribed keys, sorted.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	keys := make([]string, 0, len(e.keys))
	for k := range e.keys {
		keys = append(keys, k)
	}
	e.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Revalidate requests a deduplicated revalidation of key and waits for its
// result. Cancelling ctx stops the wait, not the request.
func (e *Engine) Revalidate(ctx context.Context, key string) (any, error) {
	return e.trigger(ctx, key, TriggerManual)
}

// Refresh revalidates key immediately, ignoring the deduping window. A
// request already in flight is joined rather than duplicated.
func (e *Engine) Refresh(ctx context.Context, key string) (any, error) {
	return e.trigger(ctx, key, TriggerRefresh)
}

func (e *Engine) trigger(ctx context.Context, key string, t Trigger) (any, error) {
	e.mu.Lock()
	ks, closed := e.keys[key], e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if ks == nil {
		return nil, ErrNotSubscribed
	}
	f, err := e.dispatch(ks, t)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

// Mutate writes data to key without a network round-trip. Subscribers are
// notified before Mutate returns.
func (e *Engine) Mutate(key string, data any) (*cache.Entry, error) {
	return e.store.Mutate(key, data)
}

// NotifyFocus marks the dashboard visible and revalidates every key whose
// policy has RevalidateOnFocus. It waits for those requests; their errors
// land on the entries, so only ctx errors are returned. Nothing is
// revalidated while offline.
func (e *Engine) NotifyFocus(ctx context.Context) error {
	e.mu.Lock()
	e.hidden = false
	offline := e.offline
	e.mu.Unlock()
	if offline {
		return nil
	}
	return e.revalidateAll(ctx, TriggerFocus, func(p cache.Policy) bool { return p.RevalidateOnFocus })
}

// NotifyBlur marks the dashboard hidden. Interval revalidation pauses until
// the next NotifyFocus.
func (e *Engine) NotifyBlur() {
	e.mu.Lock()
	e.hidden = true
	e.mu.Unlock()
}

// NotifyReconnect marks the network online and revalidates every key whose
// policy has RevalidateOnReconnect. Nothing is revalidated while hidden.
func (e *Engine) NotifyReconnect(ctx context.Context) error {
	e.mu.Lock()
	e.offline = false
	hidden := e.hidden
	e.mu.Unlock()
	if hidden {
		return nil
	}
	return e.revalidateAll(ctx, TriggerReconnect, func(p cache.Policy) bool { return p.RevalidateOnReconnect })
}

// NotifyOffline marks the network offline. Interval revalidation pauses
// until the next NotifyReconnect.
func (e *Engine) NotifyOffline() {
	e.mu.Lock()
	e.offline = true
	e.mu.Unlock()
}

// Paused reports whether interval revalidation is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hidden || e.offline
}

// Online reports whether the engine considers the network reachable.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.offline
}

// Close stops every ticker, cancels running fetches, and waits for them.
// Later calls to Subscribe, Revalidate, and Refresh return ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	for key, ks := range e.keys {
		delete(e.keys, key)
		close(ks.stop)
	}
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	return nil
}

func (e *Engine) revalidateAll(ctx context.Context, t Trigger, want func(cache.Policy) bool) error {
	e.mu.Lock()
	var targets []*keyState
	for _, ks := range e.keys {
		if want(ks.policy) {
			targets = append(targets, ks)
		}
	}
	e.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, ks := range targets {
		g.Go(func() error {
			f, err := e.dispatch(ks, t)
			if err != nil {
				return err
			}
			if _, err := f.Wait(gctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	return g.Wait()
}

// dispatch returns the flight that answers trigger t for ks: the one in
// flight, the last one when t is deduplicated and the entry settled inside
// the window, or a new one.
func (e *Engine) dispatch(ks *keyState, t Trigger) (*cache.Flight, error) {
	ctx := observe.ContextWithTrigger(e.base, string(t))

	entry := e.store.Get(ks.key)
	if entry.InFlight() {
		e.recordDedup(ctx, ks, t)
		return entry.Flight, nil
	}
	if t.dedupes() && entry.Settled() {
		e.mu.Lock()
		last, lastFlight := ks.last, ks.lastFlight
		e.mu.Unlock()
		if lastFlight != nil && ks.policy.WithinDedupe(last, e.now()) {
			e.recordDedup(ctx, ks, t)
			return lastFlight, nil
		}
	}

	f, started, err := e.store.Begin(ks.key)
	if err != nil {
		return nil, err
	}
	if !started {
		e.recordDedup(ctx, ks, t)
		return f, nil
	}

	e.mu.Lock()
	ks.last, ks.lastFlight = e.now(), f
	closed := e.closed
	if !closed {
		e.wg.Add(1)
	}
	e.mu.Unlock()
	if closed {
		e.store.Abandon(f, ErrClosed)
		return f, nil
	}

	go e.run(ctx, ks, f, t)
	return f, nil
}

func (e *Engine) run(ctx context.Context, ks *keyState, f *cache.Flight, t Trigger) {
	defer e.wg.Done()

	log := e.logger.WithFetch(observe.FetchMeta{Resource: ks.resource, Key: ks.key, Trigger: string(t)})
	data, err := e.fetch(ctx, ks)
	switch {
	case api.IsAuthExpired(err):
		e.store.Abandon(f, err)
		log.Info(ctx, "cache revalidation abandoned", observe.F("reason", "unauthorized"))
		return
	case err != nil && e.base.Err() != nil:
		e.store.Abandon(f, ErrClosed)
		return
	}

	applied := e.store.Finish(f, data, err)
	if err != nil {
		log.Warn(ctx, "cache revalidation failed", observe.F("error", err), observe.F("applied", applied))
		if e.onError != nil {
			e.onError(ks.key, err)
		}
		return
	}
	log.Debug(ctx, "cache revalidated", observe.F("applied", applied))
	if e.onSuccess != nil {
		e.onSuccess(ks.key, data)
	}
}

func (e *Engine) fetch(ctx context.Context, ks *keyState) (any, error) {
	op := func(ctx context.Context) (any, error) {
		return resilience.Run(ctx, e.attempt, func(ctx context.Context) (any, error) {
			return ks.fetcher.Fetch(ctx, ks.key)
		})
	}
	if !ks.policy.ShouldRetry() {
		return op(ctx)
	}

	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  ks.policy.ErrorRetryCount + 1,
		InitialDelay: ks.policy.ErrorRetryInterval,
		MaxDelay:     ks.policy.ErrorRetryInterval << 8,
		Strategy:     resilience.BackoffExponential,
		Jitter:       true,
		RetryIf: func(err error) bool {
			return retryable(err) && e.subscribed(ks)
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			e.logger.Debug(ctx, "retrying fetch",
				observe.F("key", ks.key),
				observe.F("attempt", attempt),
				observe.F("delay_ms", delay.Milliseconds()),
				observe.F("error", err))
		},
	})
	return resilience.Do(ctx, r, op)
}

func (e *Engine) subscribed(ks *keyState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ks.refs > 0 && e.keys[ks.key] == ks
}

func (e *Engine) recordDedup(ctx context.Context, ks *keyState, t Trigger) {
	e.metrics.RecordDedup(ctx, observe.FetchMeta{Resource: ks.resource, Key: ks.key, Trigger: string(t)})
}

// retryable reports whether a failed fetch is worth another attempt.
// Client errors other than 408 and 429 are not; neither are validation
// failures, cancellations, or expired sessions.
func retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, api.ErrInvalidRequest),
		api.IsAuthExpired(err):
		return false
	}
	if api.StatusCode(err) != 0 {
		return api.IsRetryable(err)
	}
	return true
}

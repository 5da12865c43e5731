package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/cache"
	"github.com/jonwraymond/gymcache/config"
	"github.com/jonwraymond/gymcache/fetcher"
	"github.com/jonwraymond/gymcache/health"
	"github.com/jonwraymond/gymcache/hooks"
	"github.com/jonwraymond/gymcache/observe"
	"github.com/jonwraymond/gymcache/revalidate"
)

// Dashboard is the data layer of one dashboard process.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Lifecycle: Close stops revalidation and releases storage. Queries
//   created from the dashboard should be closed first.
type Dashboard struct {
	cfg       *config.Config
	logger    observe.Logger
	observer  observe.Observer
	ownsObs   bool
	session   *auth.Store
	client    *api.Client
	responses *api.ResponseCache
	store     *cache.Store
	engine    *revalidate.Engine
	health    *health.Aggregator
	apiCheck  *health.APIChecker
	env       hooks.Env
	navigator Navigator

	userFlight singleflight.Group
	expireMu   sync.Mutex
	closers    []func() error
	closeOnce  sync.Once
	closeErr   error
}

// New builds a Dashboard from cfg (config.Default when nil). The session is
// hydrated from durable storage before any request can be issued.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (d *Dashboard, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{navigator: nopNavigator{}, transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	d = &Dashboard{cfg: cfg, navigator: o.navigator}
	defer func() {
		if err != nil {
			err = errors.Join(err, d.Close(ctx))
			d = nil
		}
	}()

	if o.observer == nil {
		obs, err := observe.NewObserver(ctx, cfg.Observe())
		if err != nil {
			return d, fmt.Errorf("dashboard: observer: %w", err)
		}
		o.observer = obs
		d.ownsObs = true
	}
	d.observer = o.observer
	d.logger = o.observer.Logger()
	mw, err := observe.MiddlewareFromObserver(o.observer)
	if err != nil {
		return d, fmt.Errorf("dashboard: middleware: %w", err)
	}

	storage := o.storage
	if storage == nil {
		s, closer, err := openStorage(cfg.Session)
		if err != nil {
			return d, err
		}
		if closer != nil {
			d.closers = append(d.closers, closer)
		}
		storage = s
	}
	d.session, err = auth.Open(ctx, storage, auth.WithLogger(d.logger))
	if err != nil {
		return d, err
	}

	transport := o.transport
	if cfg.ResponseCache.Enabled {
		d.responses, err = api.NewResponseCache(ctx, api.ResponseCacheConfig{
			LifeWindow: cfg.ResponseCache.LifeWindow,
			MaxSizeMB:  cfg.ResponseCache.MaxSizeMB,
		})
		if err != nil {
			return d, err
		}
		transport = d.responses.Transport(transport)
	}
	d.client, err = api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Transport: auth.NewTransport(d.session, transport)}),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(d.logger),
		api.WithUnauthorizedHandler(d.expire),
	)
	if err != nil {
		return d, err
	}

	d.store = cache.New()
	d.engine, err = revalidate.New(revalidate.Config{
		Store:          d.store,
		Logger:         d.logger,
		Metrics:        mw.Metrics(),
		MaxConcurrent:  cfg.Engine.MaxConcurrent,
		AttemptTimeout: cfg.Engine.AttemptTimeout,
	})
	if err != nil {
		return d, err
	}

	d.env = hooks.Env{
		Engine:       d.engine,
		Client:       d.client,
		Session:      d.session,
		Policies:     Policies(cfg.Revalidation),
		FetchOptions: []fetcher.Option{fetcher.WithMiddleware(mw)},
	}

	d.apiCheck = health.NewAPIChecker(d.client.BaseURL(), &http.Client{Transport: o.transport, Timeout: cfg.API.Timeout})
	d.health = health.NewAggregator(0)
	d.health.Register(d.apiCheck)
	d.health.Register(health.NewSessionChecker(d.session))
	d.health.Register(health.NewStoreChecker(d.store, health.StoreCheckerConfig{}))

	d.logger.Info(ctx, "dashboard ready",
		observe.F("api", d.client.BaseURL()),
		observe.F("session", d.session.State().String()),
		observe.F("session_backend", cfg.Session.Backend),
	)
	return d, nil
}

// Policies derives per-resource policies from the revalidation settings.
func Policies(rc config.RevalidationConfig) hooks.Policies {
	p := hooks.DefaultPolicies()
	apply := func(pol *cache.Policy, refresh time.Duration) {
		pol.RefreshInterval = refresh
		pol.ErrorRetryCount = rc.ErrorRetryCount
		if rc.ErrorRetryInterval > 0 {
			pol.ErrorRetryInterval = rc.ErrorRetryInterval
		}
		pol.DedupingInterval = max(pol.DedupingInterval, rc.DedupingInterval)
	}
	apply(&p.User, rc.UserRefresh)
	apply(&p.Exercises, rc.ExercisesRefresh)
	apply(&p.Routines, rc.RoutinesRefresh)
	apply(&p.AdminUsers, rc.AdminUsersRefresh)
	return p
}

// expire handles a 401 on an authenticated request. Concurrent 401s
// redirect once.
func (d *Dashboard) expire(ctx context.Context, path string) {
	d.expireMu.Lock()
	defer d.expireMu.Unlock()
	if d.session.State() != auth.Authenticated {
		return
	}

	d.logger.Warn(ctx, "session expired", observe.F("path", path))
	if err := d.session.Clear(ctx); err != nil {
		d.logger.Error(ctx, "session clear failed", observe.F("error", err))
	}
	d.resetCaches(ctx)
	d.navigator.Navigate(ctx, LoginRoute)
}

func (d *Dashboard) resetCaches(ctx context.Context) {
	d.store.Reset()
	if d.responses != nil {
		if err := d.responses.Reset(); err != nil {
			d.logger.Warn(ctx, "response cache reset failed", observe.F("error", err))
		}
	}
}

// Session returns the session store.
func (d *Dashboard) Session() *auth.Store { return d.session }

// Client returns the API client.
func (d *Dashboard) Client() *api.Client { return d.client }

// Store returns the cache store.
func (d *Dashboard) Store() *cache.Store { return d.store }

// Engine returns the revalidation engine.
func (d *Dashboard) Engine() *revalidate.Engine { return d.engine }

// Health returns the health aggregator.
func (d *Dashboard) Health() *health.Aggregator { return d.health }

// Logger returns the dashboard logger.
func (d *Dashboard) Logger() observe.Logger { return d.logger }

// Config returns the configuration the dashboard was built from.
func (d *Dashboard) Config() *config.Config { return d.cfg }

// Focus reports that the dashboard regained focus.
func (d *Dashboard) Focus(ctx context.Context) error { return d.engine.NotifyFocus(ctx) }

// Blur reports that the dashboard was hidden.
func (d *Dashboard) Blur() { d.engine.NotifyBlur() }

// Online reports that connectivity returned.
func (d *Dashboard) Online(ctx context.Context) error { return d.engine.NotifyReconnect(ctx) }

// Offline reports that connectivity was lost.
func (d *Dashboard) Offline() { d.engine.NotifyOffline() }

// Watch polls API reachability until ctx is done and drives Online and
// Offline from it.
func (d *Dashboard) Watch(ctx context.Context, interval time.Duration) {
	health.NewWatcher(d.apiCheck, d.engine, interval, d.logger).Run(ctx)
}

// Close stops revalidation and releases resources. It is safe to call on a
// partially built dashboard and more than once.
func (d *Dashboard) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		var errs []error
		if d.engine != nil {
			errs = append(errs, d.engine.Close())
		}
		if d.responses != nil {
			errs = append(errs, d.responses.Close())
		}
		for _, c := range d.closers {
			errs = append(errs, c())
		}
		if d.ownsObs && d.observer != nil {
			errs = append(errs, d.observer.Shutdown(ctx))
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}

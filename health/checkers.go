package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/cache"
)

// APIChecker probes the remote API.
type APIChecker struct {
	url    string
	client *http.Client
}

// NewAPIChecker creates an APIChecker for baseURL. A nil client selects
// http.DefaultClient. The client should not carry session credentials.
func NewAPIChecker(baseURL string, client *http.Client) *APIChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIChecker{url: baseURL, client: client}
}

func (c *APIChecker) Name() string { return "api" }

// Check sends HEAD to the base URL. 5xx responses are degraded; transport
// failures are unhealthy.
func (c *APIChecker) Check(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return Unhealthy("invalid api url", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Unhealthy("api unreachable", err).WithDetails(map[string]any{"url": c.url})
	}
	resp.Body.Close()

	details := map[string]any{"url": c.url, "status": resp.StatusCode}
	if resp.StatusCode >= http.StatusInternalServerError {
		return Degraded(fmt.Sprintf("api answered %d", resp.StatusCode)).WithDetails(details)
	}
	return Healthy("api reachable").WithDetails(details)
}

// SessionChecker reports the session state.
type SessionChecker struct {
	store *auth.Store
}

// NewSessionChecker creates a SessionChecker.
func NewSessionChecker(store *auth.Store) *SessionChecker {
	return &SessionChecker{store: store}
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(context.Context) Result {
	u, ok := c.store.User()
	if !ok {
		return Degraded("no active session")
	}
	return Healthy("session active").WithDetails(map[string]any{
		"user_id":  u.ID,
		"username": u.Username,
		"role":     string(u.Role),
	})
}

// StoreCheckerConfig sets the error ratios at which the cache is reported
// degraded and unhealthy. Ratios are fractions of entries whose last fetch
// failed, in (0, 1].
type StoreCheckerConfig struct {
	// Default: 0.25
	DegradedRatio float64
	// Default: 0.75
	UnhealthyRatio float64
}

// StoreChecker inspects the cache store.
type StoreChecker struct {
	store  *cache.Store
	config StoreCheckerConfig
}

// NewStoreChecker creates a StoreChecker.
func NewStoreChecker(store *cache.Store, config StoreCheckerConfig) *StoreChecker {
	if config.DegradedRatio <= 0 || config.DegradedRatio > 1 {
		config.DegradedRatio = 0.25
	}
	if config.UnhealthyRatio <= 0 || config.UnhealthyRatio > 1 {
		config.UnhealthyRatio = 0.75
	}
	if config.UnhealthyRatio < config.DegradedRatio {
		config.UnhealthyRatio = config.DegradedRatio
	}
	return &StoreChecker{store: store, config: config}
}

func (c *StoreChecker) Name() string { return "cache" }

func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var entries, errored, inFlight int
	for _, key := range c.store.Keys() {
		e := c.store.Get(key)
		if e == nil {
			continue
		}
		entries++
		if e.Err != nil {
			errored++
		}
		if e.InFlight() {
			inFlight++
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	details := map[string]any{
		"entries":       entries,
		"errored":       errored,
		"in_flight":     inFlight,
		"heap_alloc_mb": float64(mem.HeapAlloc) / (1024 * 1024),
		"goroutines":    runtime.NumGoroutine(),
	}
	if entries == 0 {
		return Healthy("cache empty").WithDetails(details)
	}

	ratio := float64(errored) / float64(entries)
	details["error_ratio"] = ratio
	msg := fmt.Sprintf("%d of %d entries failed", errored, entries)
	switch {
	case ratio >= c.config.UnhealthyRatio:
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.DegradedRatio:
		return Degraded(msg).WithDetails(details)
	}
	return Healthy(msg).WithDetails(details)
}

// Package health reports whether the dashboard can serve fresh data.
//
// Checkers:
//
//   - APIChecker probes the remote API base URL. Any HTTP response counts
//     as reachable; only transport failures are unhealthy.
//   - SessionChecker is degraded while no session is active.
//   - StoreChecker looks at the share of cache entries whose last fetch
//     failed, alongside heap usage.
//
// An Aggregator runs its checkers concurrently under one timeout and folds
// them into an overall Status. Routes mounts /healthz, /readyz and /health
// on a chi router.
//
// A Watcher polls one checker and turns transitions into connectivity
// events: unhealthy to healthy calls NotifyReconnect, the reverse calls
// NotifyOffline.
package health

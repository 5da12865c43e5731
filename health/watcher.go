package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/gymcache/observe"
)

// Connectivity receives reachability transitions. revalidate.Engine
// implements it.
type Connectivity interface {
	NotifyReconnect(ctx context.Context) error
	NotifyOffline()
}

// Watcher polls a checker and reports reachability changes to a
// Connectivity target. Degraded counts as reachable.
type Watcher struct {
	checker  Checker
	target   Connectivity
	interval time.Duration
	logger   observe.Logger

	mu      sync.Mutex
	online  bool
	started bool
}

// NewWatcher creates a Watcher. A non-positive interval defaults to 15s.
func NewWatcher(c Checker, target Connectivity, interval time.Duration, logger observe.Logger) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = observe.NopLogger{}
	}
	return &Watcher{checker: c, target: target, interval: interval, logger: logger}
}

// Poll runs the checker once and applies any transition. The first poll
// only reports going offline, since the target starts online.
func (w *Watcher) Poll(ctx context.Context) Result {
	r := run(ctx, w.checker)
	online := r.Status != StatusUnhealthy

	w.mu.Lock()
	was, started := w.online, w.started
	w.online, w.started = online, true
	w.mu.Unlock()

	switch {
	case !online && (was || !started):
		w.logger.Warn(ctx, "api offline", observe.F("check", w.checker.Name()), observe.F("error", r.Error))
		w.target.NotifyOffline()
	case online && started && !was:
		w.logger.Info(ctx, "api reconnected", observe.F("check", w.checker.Name()))
		if err := w.target.NotifyReconnect(ctx); err != nil {
			w.logger.Warn(ctx, "reconnect revalidation interrupted", observe.F("error", err))
		}
	}
	return r
}

// Online reports the last observed reachability.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.started || w.online
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	w.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Poll(ctx)
		}
	}
}

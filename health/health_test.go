package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/cache"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.results); got != tt.want {
				t.Errorf("Overall() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator(50 * time.Millisecond)
	agg.Register(Func("fast", func(context.Context) Result { return Healthy("ok") }))
	agg.Register(Func("slow", func(ctx context.Context) Result {
		<-ctx.Done()
		return Healthy("too late")
	}))

	results := agg.CheckAll(context.Background())
	if results["fast"].Status != StatusHealthy {
		t.Errorf("fast = %v, want healthy", results["fast"].Status)
	}
	if !errors.Is(results["slow"].Error, ErrCheckTimeout) {
		t.Errorf("slow error = %v, want ErrCheckTimeout", results["slow"].Error)
	}
	if got := agg.Names(); len(got) != 2 || got[0] != "fast" {
		t.Errorf("Names() = %v, want [fast slow]", got)
	}
	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAPIChecker(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))

	c := NewAPIChecker(srv.URL, srv.Client())
	if r := c.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("401 = %v, want healthy", r.Status)
	}
	status.Store(http.StatusBadGateway)
	if r := c.Check(context.Background()); r.Status != StatusDegraded {
		t.Errorf("502 = %v, want degraded", r.Status)
	}
	srv.Close()
	if r := c.Check(context.Background()); r.Status != StatusUnhealthy || r.Error == nil {
		t.Errorf("closed server = %v (%v), want unhealthy with error", r.Status, r.Error)
	}
}

func TestSessionChecker(t *testing.T) {
	ctx := context.Background()
	store, _ := auth.Open(ctx, auth.NewMemoryStorage())
	c := NewSessionChecker(store)

	if r := c.Check(ctx); r.Status != StatusDegraded {
		t.Errorf("anonymous = %v, want degraded", r.Status)
	}
	_ = store.Set(ctx, "tok", api.User{ID: 5, Username: "ana", Role: api.RoleAdmin})
	r := c.Check(ctx)
	if r.Status != StatusHealthy || r.Details["role"] != "ADMIN" {
		t.Errorf("authenticated = %v %v, want healthy ADMIN", r.Status, r.Details)
	}
}

func TestStoreChecker(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		errors int
		ok     int
		want   Status
	}{
		{"empty", 0, 0, StatusHealthy},
		{"all fine", 0, 4, StatusHealthy},
		{"one of four", 1, 3, StatusDegraded},
		{"three of four", 3, 1, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cache.New()
			for i := 0; i < tt.errors; i++ {
				_, _ = s.Set(api.UserPath(int64(i+1)), cache.WithError(boom))
			}
			for i := 0; i < tt.ok; i++ {
				_, _ = s.Set(api.UserPath(int64(100+i)), cache.WithData(i))
			}
			r := NewStoreChecker(s, StoreCheckerConfig{}).Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Check() = %v (%s), want %v", r.Status, r.Message, tt.want)
			}
		})
	}
}

// connectivity records watcher transitions.
type connectivity struct {
	reconnects, offlines int
}

func (c *connectivity) NotifyReconnect(context.Context) error { c.reconnects++; return nil }
func (c *connectivity) NotifyOffline()                        { c.offlines++ }

func TestWatcher_Transitions(t *testing.T) {
	var up atomic.Bool
	up.Store(true)
	checker := Func("api", func(context.Context) Result {
		if up.Load() {
			return Healthy("up")
		}
		return Unhealthy("down", ErrCheckFailed)
	})
	target := &connectivity{}
	w := NewWatcher(checker, target, time.Hour, nil)
	ctx := context.Background()

	steps := []struct {
		up         bool
		reconnects int
		offlines   int
	}{
		{true, 0, 0},
		{false, 0, 1},
		{false, 0, 1},
		{true, 1, 1},
		{true, 1, 1},
	}
	for i, s := range steps {
		up.Store(s.up)
		w.Poll(ctx)
		if target.reconnects != s.reconnects || target.offlines != s.offlines {
			t.Errorf("step %d: reconnects = %d, offlines = %d, want %d, %d",
				i, target.reconnects, target.offlines, s.reconnects, s.offlines)
		}
		if w.Online() != s.up {
			t.Errorf("step %d: Online() = %v, want %v", i, w.Online(), s.up)
		}
	}
}

func TestWatcher_StartsOffline(t *testing.T) {
	target := &connectivity{}
	w := NewWatcher(Func("api", func(context.Context) Result { return Unhealthy("down", nil) }), target, time.Hour, nil)
	w.Poll(context.Background())
	if target.offlines != 1 {
		t.Errorf("offlines = %d, want 1", target.offlines)
	}
}

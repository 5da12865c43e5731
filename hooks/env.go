package hooks

import (
	"context"
	"time"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/cache"
	"github.com/jonwraymond/gymcache/fetcher"
	"github.com/jonwraymond/gymcache/revalidate"
)

// Policies holds the revalidation policy of each resource.
type Policies struct {
	User       cache.Policy
	Exercises  cache.Policy
	Routines   cache.Policy
	AdminUsers cache.Policy
}

// DefaultPolicies returns the per-resource cache times:
//
//	user         refresh 30s,  focus on,  dedupe 2s
//	exercises    refresh 300s, focus off, dedupe 5s
//	routines     refresh 60s,  focus on,  dedupe 2s
//	admin users  refresh 120s, focus on,  dedupe 3s
//
// All resources revalidate on reconnect and retry 3 times from 5s.
func DefaultPolicies() Policies {
	with := func(refresh time.Duration, focus bool, dedupe time.Duration) cache.Policy {
		p := cache.DefaultPolicy()
		p.RefreshInterval = refresh
		p.RevalidateOnFocus = focus
		p.DedupingInterval = dedupe
		return p
	}
	return Policies{
		User:       with(30*time.Second, true, 2*time.Second),
		Exercises:  with(300*time.Second, false, 5*time.Second),
		Routines:   with(60*time.Second, true, 2*time.Second),
		AdminUsers: with(120*time.Second, true, 3*time.Second),
	}
}

// Env carries what every hook needs.
type Env struct {
	Engine *revalidate.Engine
	Client fetcher.Client

	// Session gates authenticated resources. When nil, queries never
	// report Unauthenticated and AdminUsers is disabled.
	Session *auth.Store

	// Policies defaults to DefaultPolicies when zero.
	Policies Policies

	// FetchOptions are applied to every binding, typically
	// fetcher.WithMiddleware.
	FetchOptions []fetcher.Option
}

func (e Env) validate() error {
	if e.Engine == nil {
		return ErrNilEngine
	}
	if e.Client == nil {
		return ErrNilClient
	}
	return nil
}

func (e Env) policies() Policies {
	if e.Policies == (Policies{}) {
		return DefaultPolicies()
	}
	return e.Policies
}

// authGate short-circuits fetches while no session is active, so anonymous
// timers never reach the network.
type authGate struct {
	revalidate.Fetcher
	session *auth.Store
}

func (g authGate) Fetch(ctx context.Context, key string) (any, error) {
	if g.session != nil && g.session.State() != auth.Authenticated {
		return nil, &api.AuthExpiredError{Path: key}
	}
	return g.Fetcher.Fetch(ctx, key)
}

func (g authGate) Resource() string {
	if r, ok := g.Fetcher.(revalidate.Resourcer); ok {
		return r.Resource()
	}
	return ""
}

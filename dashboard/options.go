package dashboard

import (
	"context"
	"net/http"

	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/observe"
)

// LoginRoute is where the Navigator is sent when the session ends.
const LoginRoute = "/login"

// Navigator moves the UI to another surface.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) { f(ctx, route) }

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) {}

// Option configures New.
type Option func(*options)

type options struct {
	navigator Navigator
	observer  observe.Observer
	transport http.RoundTripper
	storage   auth.Storage
}

// WithNavigator receives login redirects.
func WithNavigator(n Navigator) Option {
	return func(o *options) {
		if n != nil {
			o.navigator = n
		}
	}
}

// WithObserver replaces the observer built from the configuration. The
// dashboard does not shut it down.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithTransport sets the innermost HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithStorage replaces the session storage selected by the configuration.
func WithStorage(s auth.Storage) Option {
	return func(o *options) { o.storage = s }
}

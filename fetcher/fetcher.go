package fetcher

import (
	"context"
	"errors"

	"github.com/jonwraymond/gymcache/observe"
	"github.com/jonwraymond/gymcache/revalidate"
)

// ErrNilResolver is returned by fetches of a binding without a resolver.
var ErrNilResolver = errors.New("fetcher: resolver is nil")

// Resolver performs the network call for key.
type Resolver[T any] func(ctx context.Context, key string) (T, error)

// Binding adapts a Resolver to revalidate.Fetcher.
type Binding[T any] struct {
	resource string
	fetch    observe.FetchFunc
}

// Option configures a Binding.
type Option func(*options)

type options struct {
	mw *observe.Middleware
}

// WithMiddleware wraps every fetch of the binding with mw.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) { o.mw = mw }
}

// Bind binds resolve under the given resource name ("user", "exercises").
func Bind[T any](resource string, resolve Resolver[T], opts ...Option) *Binding[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fetch := func(ctx context.Context, meta observe.FetchMeta) (any, error) {
		if resolve == nil {
			return nil, ErrNilResolver
		}
		v, err := resolve(ctx, meta.Key)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	if o.mw != nil {
		fetch = o.mw.Wrap(fetch)
	}
	return &Binding[T]{resource: resource, fetch: fetch}
}

// BindList is Bind for list resources. A nil slice resolves as empty.
func BindList[T any](resource string, resolve Resolver[[]T], opts ...Option) *Binding[[]T] {
	normalized := func(ctx context.Context, key string) ([]T, error) {
		if resolve == nil {
			return nil, ErrNilResolver
		}
		v, err := resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		if v == nil {
			v = []T{}
		}
		return v, nil
	}
	return Bind[[]T](resource, normalized, opts...)
}

// Resource returns the binding's resource name.
func (b *Binding[T]) Resource() string { return b.resource }

// Fetch calls the resolver for key.
func (b *Binding[T]) Fetch(ctx context.Context, key string) (any, error) {
	return b.fetch(ctx, observe.FetchMeta{Resource: b.resource, Key: key})
}

var (
	_ revalidate.Fetcher   = (*Binding[int])(nil)
	_ revalidate.Resourcer = (*Binding[int])(nil)
)

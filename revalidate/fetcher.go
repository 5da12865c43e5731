package revalidate

import "context"

// Fetcher retrieves the resource named by key.
//
// Contract:
// - Purity: the same key always names the same resource.
// - Concurrency: Fetch may be called from several goroutines.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key string) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) (any, error) { return f(ctx, key) }

// Resourcer is implemented by fetchers that know their logical resource
// name. The engine uses it to label dedup metrics.
type Resourcer interface {
	Resource() string
}

func resourceOf(f Fetcher, key string) string {
	if r, ok := f.(Resourcer); ok {
		return r.Resource()
	}
	return key
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	bc "github.com/allegro/bigcache/v3"
	"github.com/gregjones/httpcache"
)

// fromCacheHeader is set by httpcache on responses served from the cache.
const fromCacheHeader = httpcache.XFromCache

// ResponseCacheConfig sizes the HTTP response cache.
type ResponseCacheConfig struct {
	// LifeWindow bounds how long a stored response is kept.
	// Default: 10 minutes
	LifeWindow time.Duration

	// MaxSizeMB caps memory use.
	// Default: 32
	MaxSizeMB int
}

// ResponseCache stores HTTP responses so conditional GETs (ETag and
// Last-Modified) can be answered with 304s. It implements httpcache.Cache on
// top of bigcache.
type ResponseCache struct {
	c *bc.BigCache
}

// NewResponseCache creates an empty response cache.
func NewResponseCache(ctx context.Context, cfg ResponseCacheConfig) (*ResponseCache, error) {
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = 10 * time.Minute
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 32
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	// A dashboard caches a handful of JSON documents; bigcache's defaults
	// preallocate for hundreds of thousands of small entries.
	conf.Shards = 64
	conf.MaxEntriesInWindow = 1024
	conf.MaxEntrySize = 4096
	conf.HardMaxCacheSize = cfg.MaxSizeMB
	conf.Verbose = false
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("api: response cache: %w", err)
	}
	return &ResponseCache{c: c}, nil
}

func (r *ResponseCache) Get(key string) ([]byte, bool) {
	b, err := r.c.Get(key)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *ResponseCache) Set(key string, resp []byte) {
	// A full shard drops the entry; the next request simply goes to the network.
	_ = r.c.Set(key, resp)
}

func (r *ResponseCache) Delete(key string) {
	_ = r.c.Delete(key)
}

// Len returns the number of stored responses.
func (r *ResponseCache) Len() int { return r.c.Len() }

// Reset drops every stored response. Called on logout so one user's
// responses are never revalidated under another user's token.
func (r *ResponseCache) Reset() error { return r.c.Reset() }

// Close releases the cache's background cleaner.
func (r *ResponseCache) Close() error { return r.c.Close() }

// Transport returns a caching RoundTripper over base (http.DefaultTransport
// when nil). Responses served from the cache carry the X-From-Cache header.
func (r *ResponseCache) Transport(base http.RoundTripper) http.RoundTripper {
	t := httpcache.NewTransport(r)
	if base != nil {
		t.Transport = base
	}
	t.MarkCachedResponses = true
	return t
}

var _ httpcache.Cache = (*ResponseCache)(nil)

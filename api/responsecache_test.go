package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestResponseCache_ConditionalGet(t *testing.T) {
	var full, notModified atomic.Int32
	srv := newTestServer(t, func(r chi.Router) {
		r.Get("/api/exercises", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("ETag", `"v1"`)
			w.Header().Set("Cache-Control", "no-cache")
			if r.Header.Get("If-None-Match") == `"v1"` {
				notModified.Add(1)
				w.WriteHeader(http.StatusNotModified)
				return
			}
			full.Add(1)
			writeJSON(w, http.StatusOK, []Exercise{{ID: 1, Name: "Deadlift"}})
		})
	})

	rc, err := NewResponseCache(context.Background(), ResponseCacheConfig{MaxSizeMB: 8})
	if err != nil {
		t.Fatalf("NewResponseCache() error = %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	c := newTestClient(t, srv, WithHTTPClient(&http.Client{Transport: rc.Transport(nil)}))
	ctx := context.Background()

	for i := range 2 {
		got, err := c.ListExercises(ctx)
		if err != nil {
			t.Fatalf("ListExercises() #%d error = %v", i, err)
		}
		if len(got) != 1 || got[0].Name != "Deadlift" {
			t.Errorf("ListExercises() #%d = %+v", i, got)
		}
	}

	if full.Load() != 1 || notModified.Load() != 1 {
		t.Errorf("full = %d, notModified = %d; want 1 and 1", full.Load(), notModified.Load())
	}
	if rc.Len() == 0 {
		t.Error("response cache is empty after a cacheable response")
	}

	if err := rc.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if rc.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", rc.Len())
	}
}

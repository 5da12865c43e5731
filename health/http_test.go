package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoutes(t *testing.T) {
	agg := NewAggregator(0)
	agg.Register(Func("api", func(context.Context) Result { return Healthy("reachable") }))
	agg.Register(Func("session", func(context.Context) Result { return Degraded("no active session") }))
	h := Handler(agg)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/healthz", http.StatusOK, "OK"},
		{"/readyz", http.StatusOK, "DEGRADED"},
		{"/health/missing", http.StatusNotFound, ""},
		{"/health/api", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestRoutes_DetailUnhealthy(t *testing.T) {
	agg := NewAggregator(0)
	agg.Register(Func("cache", func(context.Context) Result { return Unhealthy("3 of 4 entries failed", ErrCheckFailed) }))

	rec := httptest.NewRecorder()
	Handler(agg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" || resp.Checks["cache"].Error != ErrCheckFailed.Error() {
		t.Errorf("response = %+v", resp)
	}
}

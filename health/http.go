package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Response is the body of GET /health.
type Response struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is one check inside Response.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Routes mounts the health endpoints on r:
//
//	GET /healthz         always 200
//	GET /readyz          200 unless a check is unhealthy
//	GET /health          JSON detail of every check
//	GET /health/{name}   JSON detail of one check
func Routes(r chi.Router, agg *Aggregator) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		status := Overall(agg.CheckAll(req.Context()))
		writeText(w, httpStatus(status), map[Status]string{
			StatusHealthy:   "OK",
			StatusDegraded:  "DEGRADED",
			StatusUnhealthy: "UNHEALTHY",
		}[status])
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		results := agg.CheckAll(req.Context())
		status := Overall(results)
		resp := Response{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, r := range results {
			resp.Checks[name] = toCheckResponse(r)
		}
		writeJSON(w, httpStatus(status), resp)
	})
	r.Get("/health/{name}", func(w http.ResponseWriter, req *http.Request) {
		result, err := agg.Check(req.Context(), chi.URLParam(req, "name"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, httpStatus(result.Status), toCheckResponse(result))
	})
}

// Handler returns a chi router serving Routes.
func Handler(agg *Aggregator) http.Handler {
	r := chi.NewRouter()
	Routes(r, agg)
	return r
}

func toCheckResponse(r Result) CheckResponse {
	c := CheckResponse{
		Status:   r.Status.String(),
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Error != nil {
		c.Error = r.Error.Error()
	}
	return c
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

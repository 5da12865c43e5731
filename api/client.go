package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/gymcache/observe"
)

// DefaultBaseURL is used when New receives an empty base URL.
const DefaultBaseURL = "http://localhost:8080"

// maxErrorBody bounds how much of a failure body is read for its message.
const maxErrorBody = 64 << 10

// RequestIDHeader carries a per-request id for server-side correlation.
const RequestIDHeader = "X-Request-Id"

// UnauthorizedHandler is invoked once for every 401 response to an
// authenticated request, before the *AuthExpiredError is returned.
type UnauthorizedHandler func(ctx context.Context, path string)

// Client calls the gym REST API.
type Client struct {
	http           *http.Client
	baseURL        *url.URL
	logger         observe.Logger
	onUnauthorized UnauthorizedHandler
	newRequestID   func() string
	timeout        time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The auth and response
// cache transports are installed on it by the caller.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUnauthorizedHandler sets the 401 side effect.
func WithUnauthorizedHandler(fn UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// New creates a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		http:         &http.Client{},
		baseURL:      u,
		logger:       observe.NopLogger{},
		newRequestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		h := *c.http
		h.Timeout = c.timeout
		c.http = &h
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// call describes one request.
type call struct {
	method string
	path   string
	in     any
	out    any
	// list requires the body to be a JSON array.
	list bool
	// public marks endpoints called without a session; a 401 there means bad
	// credentials, not an expired session.
	public bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	if v, ok := cl.in.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(b)
	}

	u := *c.baseURL
	u.Path += cl.path
	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", cl.method, cl.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := c.newRequestID()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "api request failed",
			observe.F("method", cl.method),
			observe.F("path", cl.path),
			observe.F("request_id", reqID),
			observe.F("error", err),
		)
		return &NetworkError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "api request",
		observe.F("method", cl.method),
		observe.F("path", cl.path),
		observe.F("status", resp.StatusCode),
		observe.F("request_id", reqID),
		observe.F("duration_ms", time.Since(start).Milliseconds()),
		observe.F("from_cache", resp.Header.Get(fromCacheHeader) != ""),
	)

	if resp.StatusCode == http.StatusUnauthorized && !cl.public {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, cl.path)
		}
		return &AuthExpiredError{Path: cl.path}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			Method:  cl.method,
			Path:    cl.path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}

	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: cl.method, Path: cl.path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 && !cl.list {
		return nil
	}
	if cl.list {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return &ValidationError{Field: cl.path, Reason: "response is not a JSON array"}
		}
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return &ValidationError{Field: cl.path, Reason: "malformed response: " + err.Error()}
	}
	return nil
}

// errorMessage extracts the server's message from a failure body. The server
// answers with {"message": ...} and occasionally {"error": ...}.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return strings.TrimSpace(string(b))
		}
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token. Bad credentials come back as an
// *HTTPError with status 401; the unauthorized handler is not invoked.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{method: http.MethodPost, path: loginPath, in: req, out: &out, public: true})
	if err != nil {
		return AuthResponse{}, err
	}
	return out, validAuth(loginPath, out)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{method: http.MethodPost, path: registerPath, in: req, out: &out, public: true})
	if err != nil {
		return AuthResponse{}, err
	}
	return out, validAuth(registerPath, out)
}

func validAuth(path string, r AuthResponse) error {
	if r.Token == "" {
		return &ValidationError{Field: path, Reason: "response has no token"}
	}
	if r.ID <= 0 {
		return &ValidationError{Field: path, Reason: "response has no user id"}
	}
	return nil
}

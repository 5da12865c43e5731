package auth

import "net/http"

// Transport adds the bearer token to outgoing requests.
//
// Precedence: an Authorization header already on the request is kept, then a
// token from WithToken, then the store's session token. Requests go out
// without the header when none applies.
type Transport struct {
	Base  http.RoundTripper
	Store *Store
}

// NewTransport creates a Transport over base (http.DefaultTransport when nil).
func NewTransport(store *Store, base http.RoundTripper) *Transport {
	return &Transport{Base: base, Store: store}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	token, ok := TokenFromContext(req.Context())
	if !ok && t.Store != nil {
		token, ok = t.Store.Token()
	}
	if !ok {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", BearerPrefix+token)
	return base.RoundTrip(r)
}

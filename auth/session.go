package auth

import (
	"strings"

	"github.com/jonwraymond/gymcache/api"
)

// State is the session state machine.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Session is the persisted token and user snapshot.
type Session struct {
	Token string   `json:"token"`
	User  api.User `json:"user"`
}

// Validate reports whether s can be stored.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Token) == "" {
		return ErrInvalidSession
	}
	if s.User.ID <= 0 {
		return ErrInvalidSession
	}
	return nil
}

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// Header returns the Authorization header value for s.
func (s Session) Header() string {
	return BearerPrefix + s.Token
}

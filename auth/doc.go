// Package auth holds the dashboard's single persisted session.
//
// A Store is opened over a Storage backend (file, redis, or memory) and is
// hydrated before Open returns, so no authenticated request can be issued
// before the persisted token has been read. The store moves between two
// states: Anonymous and Authenticated. Set moves to Authenticated after a
// successful login or register; Clear moves back on logout or on a 401.
//
// Transport injects "Authorization: Bearer <token>" into outgoing requests.
// A token placed on the request context with WithToken takes precedence over
// the stored one, which lets the login flow fetch the user with the fresh
// token before the session is committed.
package auth

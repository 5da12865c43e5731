// Package hooks exposes typed, subscribable views of cached resources.
//
// Each accessor (User, Exercises, Routines, AdminUsers) subscribes to one
// cache key through the revalidation engine and returns a *Query[T]. A
// Query serves whatever the cache holds immediately and follows every
// write to the key: the first fetch, background revalidations, optimistic
// mutations and resets.
//
// State semantics:
//
//   - IsLoading is true until the first fetch for the key settles. A Mutate
//     while that fetch is pending does not clear it.
//   - IsValidating is true while any request for the key is in flight.
//   - Err is the last fetch error. Expired sessions are never reported here;
//     Unauthenticated is set instead.
//   - List queries hold an empty slice, never nil.
//
// A Query with an empty key is disabled: it never fetches and reports the
// zero state. User(env, 0) and AdminUsers for non-admin sessions are
// disabled this way.
//
// Close releases the subscription. The key's timers stop when its last
// Query closes.
package hooks

// Package revalidate decides when cached entries are refreshed.
//
// An Engine tracks the keys that currently have subscribers. For each one it
// keeps the key's Fetcher and cache.Policy, a ticker when the policy has a
// refresh interval, and the time of the last dispatched request.
//
// Triggers:
//
//   - mount: the first Subscribe of a key
//   - interval: the key's ticker, skipped while a request is in flight or
//     while the engine is blurred or offline
//   - focus: NotifyFocus, for keys with RevalidateOnFocus
//   - reconnect: NotifyReconnect, for keys with RevalidateOnReconnect
//   - manual: Revalidate
//   - refresh: Refresh
//
// Mount, focus, reconnect and manual triggers are deduplicated: inside the
// policy's DedupingInterval they join the in-flight request, or reuse the
// result of the request that just settled. Interval and refresh triggers
// ignore the window but still join a request that is in flight, so at most
// one request per key is ever outstanding.
//
// Failed fetches are retried with exponential backoff from
// ErrorRetryInterval, up to ErrorRetryCount times, while the key still has
// subscribers. After the last attempt the error is stored on the entry.
// Authentication failures are never stored or retried; the flight is
// abandoned and the session layer takes over.
package revalidate

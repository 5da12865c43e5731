// Package cache holds the process-wide cache store for remote resources.
//
// A Store maps cache keys (request paths such as "/api/users/42") to
// immutable Entry snapshots carrying the last data, the last error, the
// fetch timestamp, and the in-flight request, if any. Every write replaces
// the snapshot and synchronously notifies the key's subscribers, so all of
// them observe the same *Entry.
//
// Requests are tracked as Flights. At most one Flight exists per key; a
// second Begin joins the first. Each Flight carries a sequence number drawn
// from a store-wide counter, and a completion is applied only when its
// sequence is newer than the entry's last applied one, so late responses
// never overwrite newer data.
//
// Policy describes how a key is revalidated; the revalidate package
// enforces it.
package cache

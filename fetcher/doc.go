// Package fetcher binds typed resolvers to cache keys.
//
// A Binding turns a resolver such as api.Client.ListExercises into the
// revalidate.Fetcher the engine calls. Every fetch runs through an
// observe.Middleware, which opens a cache.fetch.<resource> span, records
// fetch metrics, and writes one log line.
//
// List bindings normalize a nil slice to an empty one, so a settled list
// resource never reads as nil. Resolver errors, including the api error
// taxonomy, are returned unchanged.
package fetcher

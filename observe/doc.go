// Package observe provides the logging, tracing, and metrics primitives used
// around cache fetches.
//
// It is a pure instrumentation library: no fetching and no I/O beyond
// exporter and log sink setup. The fetcher package wraps every bound fetch
// with a Middleware, and the revalidate engine records deduplicated
// triggers through Metrics.
package observe

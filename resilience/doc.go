// Package resilience wraps remote fetches with retry, concurrency, and
// timeout limits.
//
// # Patterns
//
//   - Retry: re-runs a failed operation with exponential, linear, or
//     constant backoff, built on cenkalti/backoff.
//   - Bulkhead: caps concurrent operations with a weighted semaphore.
//   - Timeout: bounds each attempt with a deadline.
//
// # Usage
//
//	exec := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts:  4,
//	        InitialDelay: 5 * time.Second,
//	        Jitter:       true,
//	    })),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return fetchExercises(ctx)
//	})
//
// Bulkhead wraps the whole retry loop, so a waiting retry keeps its slot;
// Timeout applies to each attempt.
package resilience

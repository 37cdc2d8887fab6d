// Package resilience guards outbound archive requests.
//
// The guards compose around a single request:
//
//   - RateLimiter paces requests to the archive server.
//   - Bulkhead caps how many requests are in flight at once.
//   - CircuitBreaker stops calling a server that keeps failing.
//   - Retry repeats transient failures with backoff.
//   - Timeout bounds each attempt.
//
// Retry only repeats errors that report themselves transient through the
// Transient interface, or ErrTimeout. A server that answered with a client
// error is never retried.
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 20, Burst: 5})),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 6})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "archive"})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	body, err := resilience.Do(ctx, exec, func(ctx context.Context) ([]byte, error) {
//	    return fetch(ctx, url)
//	})
package resilience

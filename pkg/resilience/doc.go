/*
Package resilience provides the retry and circuit-breaker primitives the
connector stack uses to survive transient broker and cache outages.

Retry re-runs an operation with exponential backoff:

	err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
	    return connector.Reconnect(ctx)
	})

CircuitBreaker fails fast once an operation keeps failing:

	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("params-cache"))
	err := cb.Execute(ctx, func(ctx context.Context) error {
	    return cache.Ping(ctx).Err()
	})
*/
package resilience

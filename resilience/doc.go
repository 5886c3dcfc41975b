// Package resilience provides retry with exponential backoff and a circuit
// breaker for calls to model sidecars.
//
// The two compose: the breaker wraps a whole retried call, so one failed
// call counts once no matter how many attempts it made.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("embedding"))
//	err := cb.Execute(func() error {
//	    return resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), call)
//	})
package resilience

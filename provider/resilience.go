package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped.
type ResilienceConfig struct {
	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.Retry == nil && c.CircuitBreaker == nil
}

// WithResilience returns a Middleware that retries failed calls and trips
// a circuit breaker around them. The breaker wraps the retried call. An
// empty config returns the provider unchanged.
func WithResilience[I, O any](cfg ResilienceConfig) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if cfg.IsEmpty() {
			return inner
		}
		var (
			retry *resilience.RetryConfig
			cb    *resilience.CircuitBreaker
		)
		if cfg.Retry != nil {
			r := *cfg.Retry
			retry = &r
		}
		if cfg.CircuitBreaker != nil {
			c := *cfg.CircuitBreaker
			if c.Name == "" {
				c.Name = inner.Name()
			}
			cb = resilience.NewCircuitBreaker(c)
		}
		return intercept(inner, func(ctx context.Context, input I) (O, error) {
			call := func() (O, error) { return inner.Execute(ctx, input) }
			if retry != nil {
				once := call
				call = func() (O, error) { return resilience.Retry(ctx, *retry, once) }
			}
			if cb == nil {
				return call()
			}

			var (
				out    O
				outErr error
			)
			err := cb.Execute(func() error {
				out, outErr = call()
				return outErr
			})
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return out, apperrors.ServiceUnavailable(inner.Name()).WithCause(err)
			}
			return out, outErr
		})
	}
}

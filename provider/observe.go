package provider

import (
	"context"
	"time"

	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/observability"
)

// WithLogging logs every call with its latency. Failures go out at warn
// level since the caller decides whether they are fatal.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return intercept(inner, func(ctx context.Context, input I) (O, error) {
			start := time.Now()
			out, err := inner.Execute(ctx, input)
			fields := map[string]interface{}{
				"provider":           inner.Name(),
				logger.FieldDuration: time.Since(start).Milliseconds(),
			}
			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.Warn("Provider call failed", fields)
			} else {
				log.Debug("Provider call succeeded", fields)
			}
			return out, err
		})
	}
}

// WithTracing opens a span "<service>.<provider>" around every call.
func WithTracing[I, O any](service string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return intercept(inner, func(ctx context.Context, input I) (O, error) {
			ctx, span := observability.StartSpan(ctx, service+"."+inner.Name())
			defer span.End()
			observability.SetSpanAttribute(ctx, observability.AttrServiceName, service)
			observability.SetSpanAttribute(ctx, observability.AttrOperationName, inner.Name())

			out, err := inner.Execute(ctx, input)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return out, err
		})
	}
}

// WithMetrics records call count, latency and failures. A nil Metrics
// leaves the provider unwrapped.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if metrics == nil {
			return inner
		}
		return intercept(inner, func(ctx context.Context, input I) (O, error) {
			start := time.Now()
			out, err := inner.Execute(ctx, input)
			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "execute", inner.Name())
			}
			metrics.RecordOperation(ctx, inner.Name(), "execute", status, time.Since(start))
			return out, err
		})
	}
}

package provider

import "context"

// Middleware wraps a RequestResponse provider with cross-cutting behavior.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares with the first one outermost:
// Chain(a, b, c)(p) == a(b(c(p))).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// intercept keeps the provider identity of inner and routes Execute
// through exec.
func intercept[I, O any](inner RequestResponse[I, O], exec func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &interceptRR[I, O]{RequestResponse: inner, exec: exec}
}

type interceptRR[I, O any] struct {
	RequestResponse[I, O]
	exec func(ctx context.Context, input I) (O, error)
}

func (r *interceptRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return r.exec(ctx, input)
}

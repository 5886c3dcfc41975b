package pipeline

import "context"

// Map applies fn to every value. The first error ends the stream.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		return &mapIter[I, O]{source: p.create(ctx), fn: fn}
	}}
}

// Indexed is a value tagged with its position in the source.
type Indexed[T any] struct {
	Index int
	Value T
}

// Enumerate tags values with their zero-based position.
func Enumerate[T any](p *Pipeline[T]) *Pipeline[Indexed[T]] {
	return &Pipeline[Indexed[T]]{create: func(ctx context.Context) Iterator[Indexed[T]] {
		next := 0
		return &mapIter[T, Indexed[T]]{source: p.create(ctx), fn: func(_ context.Context, v T) (Indexed[T], error) {
			next++
			return Indexed[T]{Index: next - 1, Value: v}, nil
		}}
	}}
}

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	v, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, v)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

package pipeline

import "context"

// Iterator yields values one at a time. Next returns ok=false once the
// stream is exhausted.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Pipeline is a lazy stream; each Collect builds a fresh iterator chain.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// FromSlice streams items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{create: func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items}
	}}
}

// Collect drains p. On error it returns the values pulled so far.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	it := p.create(ctx)
	defer it.Close()
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return out, err
		}
		out = append(out, v)
	}
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) {
	var zero T
	if it.pos >= len(it.items) {
		return zero, false, nil
	}
	it.pos++
	return it.items[it.pos-1], true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

// item is one message on a worker channel.
type item[T any] struct {
	val T
	err error
}

type chanIter[T any] struct {
	ch   <-chan item[T]
	stop func() error
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		if r.err != nil {
			return zero, false, r.err
		}
		return r.val, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error { return it.stop() }

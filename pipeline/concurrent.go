package pipeline

import (
	"context"
	"sync"
)

// Parallel runs fn on up to n goroutines. Values come out in completion
// order. The first error cancels the remaining work.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	n = max(n, 1)
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		source := p.create(ctx)
		ctx, cancel := context.WithCancel(ctx)
		in := make(chan I, n)
		out := make(chan item[O], n)
		send := func(r item[O]) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		go func() {
			defer close(in)
			for {
				v, ok, err := source.Next(ctx)
				if err != nil {
					send(item[O]{err: err})
					return
				}
				if !ok {
					return
				}
				select {
				case in <- v:
				case <-ctx.Done():
					return
				}
			}
		}()

		var wg sync.WaitGroup
		for range n {
			wg.Go(func() {
				for v := range in {
					o, err := fn(ctx, v)
					if err != nil {
						send(item[O]{err: err})
						cancel()
						return
					}
					if !send(item[O]{val: o}) {
						return
					}
				}
			})
		}
		go func() {
			wg.Wait()
			close(out)
		}()

		return &chanIter[O]{ch: out, stop: func() error {
			cancel()
			return source.Close()
		}}
	}}
}

// OrderedParallel is Parallel with results put back in input order.
// With one worker it degrades to Map.
func OrderedParallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n <= 1 {
		return Map(p, fn)
	}
	indexed := Parallel(Enumerate(p), n, func(ctx context.Context, in Indexed[I]) (Indexed[O], error) {
		out, err := fn(ctx, in.Value)
		return Indexed[O]{Index: in.Index, Value: out}, err
	})
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		return &reorderIter[O]{source: indexed.create(ctx), held: make(map[int]O)}
	}}
}

// reorderIter holds early results until every lower index has been emitted.
type reorderIter[T any] struct {
	source Iterator[Indexed[T]]
	held   map[int]T
	next   int
}

func (it *reorderIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		if v, ok := it.held[it.next]; ok {
			delete(it.held, it.next)
			it.next++
			return v, true, nil
		}
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			var zero T
			return zero, false, err
		}
		it.held[in.Index] = in.Value
	}
}

func (it *reorderIter[T]) Close() error { return it.source.Close() }

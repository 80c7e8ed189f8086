package async

import (
	"context"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation finishes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for the result or for ctx to end, whichever comes first.
// The computation itself keeps running in the background.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async runs fn in a new goroutine. A context that is already done yields its
// error without calling fn.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Map calls fn for every item with at most limit calls in flight and returns
// the results in input order. fn is expected to handle its own failures; Map
// never short-circuits. A non-positive limit means one goroutine per item.
func Map[T any, U any](ctx context.Context, limit int, items []T, fn func(context.Context, T) U) []U {
	results := make([]U, len(items))
	if len(items) == 0 {
		return results
	}
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, item := range items {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, item T) {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}

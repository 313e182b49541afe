package dispatch

import (
	"context"
)

// progressBuffer is how many progress updates a future holds for a slow reader.
const progressBuffer = 64

// Progress is one progress update of a running task.
type Progress struct {
	Current int
	Total   int
	Label   string
}

// Future is the pending result of a submitted task.
// The progress channel is closed before the result is published.
type Future[T any] struct {
	done     chan struct{}
	progress chan Progress
	result   T
	err      error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		done:     make(chan struct{}),
		progress: make(chan Progress, progressBuffer),
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Progress delivers updates while the task runs. Updates are dropped when
// the reader falls more than a buffer behind.
func (f *Future[T]) Progress() <-chan Progress {
	return f.progress
}

// Wait blocks until the result is available or ctx ends.
// Ending ctx does not cancel the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) report(current, total int, label string) {
	select {
	case f.progress <- Progress{Current: current, Total: total, Label: label}:
	default:
	}
}

func (f *Future[T]) complete(result T, err error) {
	close(f.progress)
	f.result = result
	f.err = err
	close(f.done)
}

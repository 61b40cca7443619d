package tui

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task runs one request in the background. The render loop polls Done
// instead of waiting on it.
type Task[T any] struct {
	cancel context.CancelFunc
	done   atomic.Bool
	wg     sync.WaitGroup

	result T
	err    error
}

// StartTask runs fn on its own goroutine with a cancellable context.
func StartTask[T any](parent context.Context, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{cancel: cancel}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		t.result, t.err = fn(ctx)
		t.done.Store(true)
	}()
	return t
}

// Done reports whether the task finished. It never blocks.
func (t *Task[T]) Done() bool { return t.done.Load() }

// Result returns the outcome. Only valid once Done reports true.
func (t *Task[T]) Result() (T, error) { return t.result, t.err }

// Cancel aborts the task. Its result is discarded by the caller.
func (t *Task[T]) Cancel() { t.cancel() }

// Wait blocks until the goroutine exits. Used on shutdown.
func (t *Task[T]) Wait() { t.wg.Wait() }

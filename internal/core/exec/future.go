package exec

import (
	"context"
	"sync"

	"github.com/vietddude/dexagg/internal/core/apierr"
)

// Future is the future-based facade. It completes exactly once, with a value,
// with the classified error, or with a CanceledError after Cancel.
type Future[T any] struct {
	done chan struct{}

	mu        sync.Mutex
	settled   bool
	cancelled bool
	value     T
	err       *apierr.Error
	sub       *Subscription
}

// Go subscribes to op on a pool worker and returns immediately.
func Go[T any](ctx context.Context, ex *Executor, op Operation[T]) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	if ex.closed.Load() {
		f.fail(apierr.Wrap(apierr.KindCanceled, ErrClosed))
		return f
	}

	err := ex.pool.Submit(func(poolCtx context.Context) {
		if f.isSettled() {
			return
		}

		sub := Defer(ex, op).Subscribe(ctx, Observer[T]{
			OnSuccess: f.succeed,
			OnError:   f.fail,
		})
		f.attach(sub)

		select {
		case <-sub.Done():
		case <-poolCtx.Done():
			sub.Unsubscribe()
			f.fail(apierr.Wrap(apierr.KindCanceled, ErrClosed))
		}
	}, func(err error) {
		f.fail(apierr.Wrap(apierr.KindCanceled, err))
	})
	if err != nil {
		f.fail(apierr.Wrap(apierr.KindCanceled, err))
	}

	return f
}

// Get waits for completion or for ctx. Giving up on ctx does not cancel the future.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, apierr.Classify(ctx.Err())
	}
}

// Done is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome if the future has completed.
func (f *Future[T]) Result() (value T, err error, ok bool) {
	select {
	case <-f.done:
		value, err = f.result()
		return value, err, true
	default:
		return value, nil, false
	}
}

// Cancel completes the future with a CanceledError and unsubscribes the
// underlying execution. It returns false if the future had already completed.
func (f *Future[T]) Cancel() bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.cancelled = true
	f.err = apierr.Wrap(apierr.KindCanceled, apierr.ErrCanceled)
	sub := f.sub
	close(f.done)
	f.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	return true
}

// Cancelled reports whether Cancel completed the future.
func (f *Future[T]) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.value, f.err
	}
	return f.value, nil
}

func (f *Future[T]) succeed(v T) {
	f.settle(v, nil)
}

func (f *Future[T]) fail(err *apierr.Error) {
	var zero T
	f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err *apierr.Error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return false
	}
	f.settled = true
	f.value = v
	f.err = err
	close(f.done)
	return true
}

func (f *Future[T]) isSettled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// attach records the running subscription, disposing it at once if the
// future was cancelled before the subscription started.
func (f *Future[T]) attach(sub *Subscription) {
	f.mu.Lock()
	if f.cancelled {
		f.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	f.sub = sub
	f.mu.Unlock()
}

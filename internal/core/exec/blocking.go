package exec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/dexagg/internal/core/apierr"
)

// Call is the blocking facade. It parks the calling goroutine until the
// operation completes, using the executor's default timeout if one is set.
func Call[T any](ctx context.Context, ex *Executor, op Operation[T]) (T, error) {
	return CallTimeout(ctx, ex, op, ex.timeout)
}

// CallTimeout is Call with an explicit timeout. On timeout the execution is
// unsubscribed and a TimeoutError is returned without waiting for the producer.
// A non-positive timeout waits indefinitely (or until ctx is done).
func CallTimeout[T any](ctx context.Context, ex *Executor, op Operation[T], timeout time.Duration) (T, error) {
	var (
		zero  T
		value T
		cerr  *apierr.Error
	)

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sub := Defer(ex, op).Subscribe(waitCtx, Observer[T]{
		OnSuccess: func(v T) { value = v },
		OnError:   func(err *apierr.Error) { cerr = err },
	})

	select {
	case <-sub.Done():
		if cerr != nil {
			return zero, cerr
		}
		return value, nil
	case <-waitCtx.Done():
		sub.Unsubscribe()
		// The terminal event may have won the race with the deadline.
		if !sub.Disposed() {
			<-sub.Done()
			if cerr != nil {
				return zero, cerr
			}
			return value, nil
		}
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, apierr.Wrap(apierr.KindTimeout,
				fmt.Errorf("%s timed out after %s: %w", op.Name, timeout, context.DeadlineExceeded))
		}
		return zero, apierr.Classify(waitCtx.Err())
	}
}

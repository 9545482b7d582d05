package exec

import (
	"context"
	"sync/atomic"

	"github.com/vietddude/dexagg/internal/core/apierr"
)

// Observer receives the single terminal event of a subscription.
// Exactly one of OnSuccess or OnError is called, unless the subscription is
// disposed first. Nil callbacks are ignored.
type Observer[T any] struct {
	OnSuccess func(T)
	OnError   func(*apierr.Error)
}

// Single is the reactive facade: a cold, single-value handle. Nothing runs
// until Subscribe, and each Subscribe executes the Operation again.
type Single[T any] struct {
	ex *Executor
	op Operation[T]
}

// Defer wraps op without executing it.
func Defer[T any](ex *Executor, op Operation[T]) *Single[T] {
	return &Single[T]{ex: ex, op: op}
}

// Subscribe starts one execution and delivers its outcome to obs.
func (s *Single[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		v, err := execute(runCtx, s.ex, s.op)
		sub.terminate(func() {
			if err != nil {
				if obs.OnError != nil {
					obs.OnError(err)
				}
				return
			}
			if obs.OnSuccess != nil {
				obs.OnSuccess(v)
			}
		})
	}()

	return sub
}

const (
	subActive int32 = iota
	subTerminated
	subDisposed
)

// Subscription controls one execution started by Single.Subscribe.
type Subscription struct {
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe cancels the execution context and suppresses delivery of any
// later terminal event. The network call may already be in flight.
func (s *Subscription) Unsubscribe() {
	if s.state.CompareAndSwap(subActive, subDisposed) {
		s.cancel()
		close(s.done)
		return
	}
	s.cancel()
}

// Done is closed once the terminal event was delivered or the subscription was disposed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Disposed reports whether Unsubscribe won over the terminal event.
func (s *Subscription) Disposed() bool {
	return s.state.Load() == subDisposed
}

func (s *Subscription) terminate(deliver func()) {
	if s.state.CompareAndSwap(subActive, subTerminated) {
		deliver()
		close(s.done)
	}
	s.cancel()
}

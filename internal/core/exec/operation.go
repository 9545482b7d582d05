// Package exec is the request execution core.
//
// Every Operation runs through one reactive primitive (Single). The future and
// blocking calling conventions are thin adapters over it, so all three observe
// the same value or the same classified error:
//
//	op := exec.NewOperation("prices", produce, exec.Cached(key, domain.ResourcePrice))
//
//	// Reactive
//	sub := exec.Defer(ex, op).Subscribe(ctx, exec.Observer[Prices]{OnSuccess: ..., OnError: ...})
//
//	// Future
//	f := exec.Go(ctx, ex, op)
//	prices, err := f.Get(ctx)
//
//	// Blocking
//	prices, err := exec.Call(ctx, ex, op)
//
// Errors delivered by any facade are *apierr.Error.
package exec

import (
	"context"

	"github.com/vietddude/dexagg/internal/core/domain"
)

// Producer performs the actual work, usually one HTTP call.
type Producer[T any] func(ctx context.Context) (T, error)

// Spec holds the non-generic attributes of an Operation.
type Spec struct {
	// Name identifies the operation in logs and metrics (e.g. "swap.quote")
	Name string

	// CacheKey selects the cache entry. Empty means never cached.
	CacheKey string

	// Class selects the TTL of cached results.
	Class domain.ResourceClass

	// Idempotent operations may be cached and coalesced.
	Idempotent bool

	// Validate runs before the producer. A non-nil result short-circuits the
	// operation with a ValidationError.
	Validate func() error
}

// Operation is one describable unit of asynchronous work. It is stateless and
// may be executed any number of times.
type Operation[T any] struct {
	Spec
	Produce Producer[T]
}

// Option configures an Operation.
type Option func(*Spec)

// NewOperation creates an Operation.
func NewOperation[T any](name string, produce Producer[T], opts ...Option) Operation[T] {
	op := Operation[T]{
		Spec:    Spec{Name: name},
		Produce: produce,
	}
	for _, opt := range opts {
		opt(&op.Spec)
	}
	return op
}

// Cached marks the operation cacheable under key with the TTL of class.
// Cached operations are idempotent.
func Cached(key string, class domain.ResourceClass) Option {
	return func(s *Spec) {
		s.CacheKey = key
		s.Class = class
		s.Idempotent = true
	}
}

// Idempotent marks a read that is safe to coalesce but is not cached.
func Idempotent() Option {
	return func(s *Spec) {
		s.Idempotent = true
	}
}

// Validated sets the pre-flight validation.
func Validated(validate func() error) Option {
	return func(s *Spec) {
		s.Validate = validate
	}
}

func (s Spec) cacheable() bool {
	return s.CacheKey != "" && s.Idempotent && s.Class != domain.ResourceNone
}

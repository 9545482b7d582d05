// Package aggregate fans out independent operations and joins their outcomes
// without letting one failure abort the others.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/exec"
	"github.com/vietddude/dexagg/internal/metrics"
)

var (
	// ErrNoOperations is returned when Run is given nothing to do.
	ErrNoOperations = errors.New("aggregate: at least one operation required")

	// ErrDuplicateKey is returned when two operations share a key.
	ErrDuplicateKey = errors.New("aggregate: duplicate key")
)

// Keyed pairs an operation with the key its outcome is reported under.
type Keyed[K comparable, T any] struct {
	Key K
	Op  exec.Operation[T]
}

// Outcome is the settled result of one sub-operation.
type Outcome[T any] struct {
	Value T
	Err   *apierr.Error
}

// OK reports whether the sub-operation succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Result maps every input key to its outcome.
type Result[K comparable, T any] struct {
	Outcomes     map[K]Outcome[T]
	AllSucceeded bool
}

// Len returns the number of keys.
func (r Result[K, T]) Len() int {
	return len(r.Outcomes)
}

// Values returns the successful values by key.
func (r Result[K, T]) Values() map[K]T {
	out := make(map[K]T, len(r.Outcomes))
	for k, o := range r.Outcomes {
		if o.OK() {
			out[k] = o.Value
		}
	}
	return out
}

// Errors returns the failures by key.
func (r Result[K, T]) Errors() map[K]*apierr.Error {
	out := make(map[K]*apierr.Error)
	for k, o := range r.Outcomes {
		if !o.OK() {
			out[k] = o.Err
		}
	}
	return out
}

// Run dispatches every operation through the future facade at once, waits for
// all of them and records each outcome under its key. Partial failure is a
// normal result; Run itself fails only on invalid input. Once ctx is done,
// unsettled sub-operations are cancelled and reported as CanceledError.
func Run[K comparable, T any](ctx context.Context, ex *exec.Executor, ops []Keyed[K, T]) (Result[K, T], error) {
	if len(ops) == 0 {
		return Result[K, T]{}, ErrNoOperations
	}

	seen := make(map[K]struct{}, len(ops))
	for _, op := range ops {
		if _, dup := seen[op.Key]; dup {
			return Result[K, T]{}, fmt.Errorf("%w: %v", ErrDuplicateKey, op.Key)
		}
		seen[op.Key] = struct{}{}
	}

	futures := make([]*exec.Future[T], len(ops))
	for i, op := range ops {
		futures[i] = exec.Go(ctx, ex, op.Op)
	}

	result := Result[K, T]{
		Outcomes:     make(map[K]Outcome[T], len(ops)),
		AllSucceeded: true,
	}
	for i, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			f.Cancel()
		}
		v, err, _ := f.Result()
		if err != nil {
			result.Outcomes[ops[i].Key] = Outcome[T]{Err: apierr.Classify(err)}
			result.AllSucceeded = false
			metrics.AggregatedOperations.WithLabelValues("failure").Inc()
			continue
		}
		result.Outcomes[ops[i].Key] = Outcome[T]{Value: v}
		metrics.AggregatedOperations.WithLabelValues("success").Inc()
	}

	return result, nil
}

// Chunk splits items into batches of at most size elements.
func Chunk[E any](items []E, size int) [][]E {
	if size <= 0 || len(items) <= size {
		if len(items) == 0 {
			return nil
		}
		return [][]E{items}
	}

	chunks := make([][]E, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

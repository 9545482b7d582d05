package exec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/infra/cache"
	"github.com/vietddude/dexagg/internal/metrics"
)

// ErrClosed is returned for work submitted to a closed Executor.
var ErrClosed = errors.New("executor closed")

// DefaultWorkers bounds concurrent future-based executions.
const DefaultWorkers = 32

// Options configures an Executor.
type Options struct {
	// Cache fronts cacheable operations. Nil disables caching.
	Cache *cache.Cache

	// Workers bounds concurrent future-based executions (default 32).
	Workers int

	// Coalesce collapses concurrent misses on the same cache key into one
	// producer call.
	Coalesce bool

	// DefaultTimeout applies to Call when the caller passes none. Zero means no timeout.
	DefaultTimeout time.Duration

	Logger *slog.Logger
}

// Executor runs Operations. It owns the worker pool hosting future-based
// executions and must be closed when no longer needed.
type Executor struct {
	cache    *cache.Cache
	pool     *Pool
	coalesce bool
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
	closed   atomic.Bool
}

// New creates an Executor.
func New(opts Options) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Executor{
		cache:    opts.Cache,
		pool:     NewPool(opts.Workers),
		coalesce: opts.Coalesce,
		timeout:  opts.DefaultTimeout,
		logger:   opts.Logger,
	}
}

// Close stops accepting future-based work, detaches queued and in-flight
// futures and waits for the pool to drain. The cache is owned by the caller.
func (e *Executor) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.pool.Close()
	return nil
}

// execute is the single execution path behind every facade.
func execute[T any](ctx context.Context, e *Executor, op Operation[T]) (T, *apierr.Error) {
	var zero T
	start := time.Now()

	if op.Validate != nil {
		if err := op.Validate(); err != nil {
			cerr := validationError(err)
			e.finish(op.Spec, "validation", start, cerr)
			return zero, cerr
		}
	}

	if op.Produce == nil {
		cerr := apierr.New(apierr.KindUnknown, fmt.Sprintf("operation %q has no producer", op.Name))
		e.finish(op.Spec, "bypass", start, cerr)
		return zero, cerr
	}

	ttl, cacheable := e.cacheTTL(op.Spec)
	if cacheable {
		if v, ok := lookup[T](ctx, e, op.Spec); ok {
			e.finish(op.Spec, "hit", start, nil)
			return v, nil
		}
	}

	v, err := produce(ctx, e, op, cacheable)
	if err != nil {
		cerr := apierr.Classify(err)
		e.finish(op.Spec, cacheOutcome(cacheable), start, cerr)
		return zero, cerr
	}

	if cacheable {
		e.store(ctx, op.Spec, v, ttl)
	}
	e.finish(op.Spec, cacheOutcome(cacheable), start, nil)
	return v, nil
}

// produce invokes the producer. With coalescing enabled, concurrent misses on
// the same key share one call. The shared call is detached from any single
// caller's cancellation; each caller stops waiting when its own ctx ends.
func produce[T any](ctx context.Context, e *Executor, op Operation[T], cacheable bool) (T, error) {
	var zero T
	if !e.coalesce || !cacheable {
		return invoke(ctx, op)
	}

	ch := e.group.DoChan(op.CacheKey, func() (any, error) {
		return invoke(context.WithoutCancel(ctx), op)
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.logger.Debug("Coalesced producer call", "operation", op.Name, "key", op.CacheKey)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, &apierr.DecodeError{Target: fmt.Sprintf("%T", zero), Err: fmt.Errorf("coalesced result has type %T", res.Val)}
		}
		if res.Shared {
			return private(typed), nil
		}
		return typed, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// invoke calls the producer. A panicking producer fails the operation instead
// of the process.
func invoke[T any](ctx context.Context, op Operation[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("producer %s panicked: %v", op.Name, r)
		}
	}()
	return op.Produce(ctx)
}

// private returns a deep copy of v for one of several coalesced callers.
// Values that do not survive a JSON round trip are returned as is.
func private[T any](v T) T {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// store caches v as JSON so every hit decodes a private copy, whatever the store.
func (e *Executor) store(ctx context.Context, spec Spec, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		e.logger.Warn("Skipping cache store of unencodable value", "operation", spec.Name, "key", spec.CacheKey, "error", err)
		return
	}
	e.cache.Put(ctx, spec.CacheKey, json.RawMessage(raw), ttl)
}

// lookup returns a cached value for op. Entries hold raw JSON and are decoded
// into a fresh T on every hit; a value that cannot be decoded is a miss.
func lookup[T any](ctx context.Context, e *Executor, spec Spec) (T, bool) {
	var zero T

	entry, ok := e.cache.Get(ctx, spec.CacheKey)
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues(string(spec.Class), "miss").Inc()
		return zero, false
	}

	switch v := entry.Value.(type) {
	case json.RawMessage:
		var decoded T
		if err := json.Unmarshal(v, &decoded); err != nil {
			e.logger.Warn("Discarding undecodable cache entry", "operation", spec.Name, "key", spec.CacheKey, "error", err)
			metrics.CacheLookupsTotal.WithLabelValues(string(spec.Class), "miss").Inc()
			return zero, false
		}
		metrics.CacheLookupsTotal.WithLabelValues(string(spec.Class), "hit").Inc()
		return decoded, true
	case T:
		metrics.CacheLookupsTotal.WithLabelValues(string(spec.Class), "hit").Inc()
		return v, true
	default:
		metrics.CacheLookupsTotal.WithLabelValues(string(spec.Class), "miss").Inc()
		return zero, false
	}
}

func (e *Executor) cacheTTL(spec Spec) (time.Duration, bool) {
	if e.cache == nil || !spec.cacheable() {
		return 0, false
	}
	return e.cache.TTL(spec.Class)
}

func (e *Executor) finish(spec Spec, cacheState string, start time.Time, err *apierr.Error) {
	elapsed := time.Since(start)
	metrics.OperationLatency.WithLabelValues(spec.Name).Observe(elapsed.Seconds())

	if err != nil {
		metrics.OperationsTotal.WithLabelValues(spec.Name, string(err.Kind())).Inc()
		e.logger.Debug("Operation failed",
			"operation", spec.Name,
			"cache", cacheState,
			"kind", err.Kind(),
			"duration", elapsed,
			"error", err,
		)
		return
	}

	metrics.OperationsTotal.WithLabelValues(spec.Name, "success").Inc()
	e.logger.Debug("Operation completed",
		"operation", spec.Name,
		"cache", cacheState,
		"duration", elapsed,
	)
}

func cacheOutcome(cacheable bool) string {
	if cacheable {
		return "miss"
	}
	return "bypass"
}

// validationError classifies a pre-flight failure. Whatever the validator
// returned, the operation fails as a ValidationError.
func validationError(err error) *apierr.Error {
	cerr := apierr.Classify(err)
	if cerr.Kind() == apierr.KindValidation {
		return cerr
	}
	return apierr.Wrap(apierr.KindValidation, err)
}

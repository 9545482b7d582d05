package exec

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/infra/cache"
)

type quote struct {
	Src    string
	Dst    string
	Amount string
}

// countingProducer counts invocations and returns a fixed outcome.
type countingProducer struct {
	calls atomic.Int32
	value *quote
	err   error
}

func (p *countingProducer) Produce(ctx context.Context) (*quote, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.value, nil
}

// blockingProducer waits for release or ctx before returning.
type blockingProducer struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingProducer() *blockingProducer {
	return &blockingProducer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *blockingProducer) Produce(ctx context.Context) (string, error) {
	p.calls.Add(1)
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return "late value", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExecutor(t *testing.T, opts Options) *Executor {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	ex := New(opts)
	t.Cleanup(func() { _ = ex.Close() })
	return ex
}

func newCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(), cache.DefaultPolicy(), cache.WithLogger(quietLogger()))
}

// subscribeAndWait collects the single event of a reactive subscription.
func subscribeAndWait[T any](t *testing.T, s *Single[T]) (T, *apierr.Error) {
	t.Helper()
	var (
		value  T
		err    *apierr.Error
		events atomic.Int32
	)
	sub := s.Subscribe(context.Background(), Observer[T]{
		OnSuccess: func(v T) { value = v; events.Add(1) },
		OnError:   func(e *apierr.Error) { err = e; events.Add(1) },
	})
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not terminate")
	}
	if n := events.Load(); n != 1 {
		t.Fatalf("expected exactly 1 terminal event, got %d", n)
	}
	return value, err
}

func TestFacades_SameValue(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := &countingProducer{value: &quote{Src: "ETH", Dst: "USDC", Amount: "1000"}}
	op := NewOperation("swap.quote", producer.Produce)
	ctx := context.Background()

	blocking, err := Call(ctx, ex, op)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	future, err := Go(ctx, ex, op).Get(ctx)
	if err != nil {
		t.Fatalf("Future.Get: %v", err)
	}

	reactive, rerr := subscribeAndWait(t, Defer(ex, op))
	if rerr != nil {
		t.Fatalf("Subscribe: %v", rerr)
	}

	if *blocking != *future || *future != *reactive {
		t.Errorf("facades disagree: %+v / %+v / %+v", blocking, future, reactive)
	}
	if got := producer.calls.Load(); got != 3 {
		t.Errorf("uncached op should run once per facade call, got %d", got)
	}
}

func TestFacades_SameAPIError(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := &countingProducer{err: &apierr.APIError{
		ErrorCode:   "Too Many Requests",
		Description: "Rate limit",
		StatusCode:  429,
		RequestID:   "req-123",
		Meta:        []apierr.MetaEntry{{Type: "limit", Value: "10"}},
	}}
	op := NewOperation("prices", producer.Produce)
	ctx := context.Background()

	_, blockingErr := Call(ctx, ex, op)
	_, futureErr := Go(ctx, ex, op).Get(ctx)
	_, reactiveErr := subscribeAndWait(t, Defer(ex, op))

	for name, err := range map[string]error{
		"blocking": blockingErr,
		"future":   futureErr,
		"reactive": reactiveErr,
	} {
		var cerr *apierr.Error
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected *apierr.Error, got %T", name, err)
		}
		env := cerr.Envelope()
		if env.Kind != apierr.KindAPI {
			t.Errorf("%s: expected ApiError, got %s", name, env.Kind)
		}
		if env.HTTPStatus != 429 || env.Message != "Rate limit" || env.RequestID != "req-123" {
			t.Errorf("%s: fields lost: %+v", name, env)
		}
		if len(env.Meta) != 1 || env.Meta[0] != (apierr.MetaEntry{Type: "limit", Value: "10"}) {
			t.Errorf("%s: metadata lost: %+v", name, env.Meta)
		}
	}
}

func TestCache_SecondCallWithinTTLSkipsProducer(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache()})
	producer := &countingProducer{value: &quote{Src: "ETH"}}
	op := NewOperation("prices", producer.Produce, Cached("prices:1:eth", domain.ResourcePrice))
	ctx := context.Background()

	first, err := Call(ctx, ex, op)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := Go(ctx, ex, op).Get(ctx)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if producer.calls.Load() != 1 {
		t.Errorf("expected 1 producer call, got %d", producer.calls.Load())
	}
	if *first != *second {
		t.Errorf("expected the cached value, got %+v and %+v", first, second)
	}
}

func TestCache_HitsAreIsolatedFromCallerMutation(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache()})
	var calls atomic.Int32
	op := NewOperation("prices", func(ctx context.Context) (map[string]string, error) {
		calls.Add(1)
		return map[string]string{"eth": "100"}, nil
	}, Cached("price:1", domain.ResourcePrice))
	ctx := context.Background()

	first, err := Call(ctx, ex, op)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	first["eth"] = "tampered"

	second, err := Call(ctx, ex, op)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	second["btc"] = "1"

	third, err := Go(ctx, ex, op).Get(ctx)
	if err != nil {
		t.Fatalf("third call: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 producer call, got %d", calls.Load())
	}
	if second["eth"] != "100" || len(third) != 1 || third["eth"] != "100" {
		t.Errorf("cache entry changed by a caller: second=%v third=%v", second, third)
	}
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache()})
	producer := &countingProducer{err: errors.New("boom")}
	op := NewOperation("prices", producer.Produce, Cached("prices:1:eth", domain.ResourcePrice))
	ctx := context.Background()

	_, _ = Call(ctx, ex, op)
	_, _ = Call(ctx, ex, op)

	if producer.calls.Load() != 2 {
		t.Errorf("expected failures to bypass the cache, got %d calls", producer.calls.Load())
	}
}

func TestCache_NoKeyBypassesCache(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache()})
	producer := &countingProducer{value: &quote{}}
	op := NewOperation("orders", producer.Produce, Idempotent())
	ctx := context.Background()

	_, _ = Call(ctx, ex, op)
	_, _ = Call(ctx, ex, op)

	if producer.calls.Load() != 2 {
		t.Errorf("expected 2 producer calls, got %d", producer.calls.Load())
	}
}

// rawStore serves every key as raw JSON, like a shared Redis cache.
type rawStore struct{ raw json.RawMessage }

func (s rawStore) Get(_ context.Context, key string) (cache.Entry, bool, error) {
	return cache.Entry{Key: key, Value: s.raw, StoredAt: time.Now(), TTL: time.Minute}, true, nil
}
func (rawStore) Put(context.Context, cache.Entry) error { return nil }
func (rawStore) Close() error                           { return nil }

func TestCache_DecodesRawJSONEntries(t *testing.T) {
	c := cache.New(rawStore{raw: json.RawMessage(`{"Src":"ETH","Dst":"DAI","Amount":"5"}`)},
		cache.DefaultPolicy(), cache.WithLogger(quietLogger()))
	ex := newExecutor(t, Options{Cache: c})
	producer := &countingProducer{value: &quote{}}
	op := NewOperation("quote", producer.Produce, Cached("k", domain.ResourcePrice))

	got, err := Call(context.Background(), ex, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if producer.calls.Load() != 0 {
		t.Error("expected cached value to be used")
	}
	if got.Dst != "DAI" {
		t.Errorf("expected decoded DAI, got %+v", got)
	}
}

func TestCache_UndecodableEntryIsMiss(t *testing.T) {
	c := cache.New(rawStore{raw: json.RawMessage(`"not an object"`)},
		cache.DefaultPolicy(), cache.WithLogger(quietLogger()))
	ex := newExecutor(t, Options{Cache: c, Logger: quietLogger()})
	producer := &countingProducer{value: &quote{Src: "fresh"}}
	op := NewOperation("quote", producer.Produce, Cached("k", domain.ResourcePrice))

	got, err := Call(context.Background(), ex, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if producer.calls.Load() != 1 || got.Src != "fresh" {
		t.Errorf("expected a fresh fetch, got %+v after %d calls", got, producer.calls.Load())
	}
}

func TestValidation_ShortCircuits(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache()})
	producer := &countingProducer{value: &quote{}}
	wallet := ""
	op := NewOperation("balances", producer.Produce,
		Cached("balances:"+wallet, domain.ResourcePrice),
		Validated(func() error { return apierr.RequireNonEmpty("wallet", wallet) }),
	)
	ctx := context.Background()

	_, blockingErr := Call(ctx, ex, op)
	_, futureErr := Go(ctx, ex, op).Get(ctx)
	_, reactiveErr := subscribeAndWait(t, Defer(ex, op))

	for _, err := range []error{blockingErr, futureErr, reactiveErr} {
		if apierr.KindOf(err) != apierr.KindValidation {
			t.Errorf("expected ValidationError, got %v", err)
		}
	}
	if producer.calls.Load() != 0 {
		t.Errorf("producer must not run, got %d calls", producer.calls.Load())
	}
}

func TestValidation_AnyValidatorErrorIsValidation(t *testing.T) {
	ex := newExecutor(t, Options{})
	op := NewOperation("x", (&countingProducer{}).Produce,
		Validated(func() error { return errors.New("bad input") }))

	_, err := Call(context.Background(), ex, op)
	if apierr.KindOf(err) != apierr.KindValidation {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestFuture_CancelBeforeCompletion(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := newBlockingProducer()
	op := NewOperation("slow", producer.Produce)

	f := Go(context.Background(), ex, op)
	<-producer.started

	if !f.Cancel() {
		t.Fatal("expected Cancel to succeed before completion")
	}
	close(producer.release)

	_, err := f.Get(context.Background())
	if apierr.KindOf(err) != apierr.KindCanceled {
		t.Fatalf("expected CanceledError, got %v", err)
	}
	if !errors.Is(err, apierr.ErrCanceled) {
		t.Error("expected error to wrap ErrCanceled")
	}

	time.Sleep(20 * time.Millisecond)
	if v, err, ok := f.Result(); !ok || err == nil || v != "" {
		t.Errorf("cancelled future must never complete successfully: %q %v %v", v, err, ok)
	}
	if f.Cancel() {
		t.Error("second Cancel should report false")
	}
	if !f.Cancelled() {
		t.Error("expected Cancelled() to be true")
	}
}

func TestFuture_CancelAfterCompletionIsNoop(t *testing.T) {
	ex := newExecutor(t, Options{})
	op := NewOperation("fast", (&countingProducer{value: &quote{Src: "A"}}).Produce)

	f := Go(context.Background(), ex, op)
	v, err := f.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Cancel() {
		t.Error("Cancel after completion must return false")
	}
	again, err := f.Get(context.Background())
	if err != nil || again != v {
		t.Error("completed value must be unchanged by Cancel")
	}
}

func TestFuture_GetHonoursContextWithoutCancelling(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := newBlockingProducer()
	f := Go(context.Background(), ex, NewOperation("slow", producer.Produce))
	<-producer.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Get(ctx); apierr.KindOf(err) != apierr.KindTimeout {
		t.Errorf("expected TimeoutError from Get, got %v", err)
	}

	close(producer.release)
	v, err := f.Get(context.Background())
	if err != nil || v != "late value" {
		t.Errorf("future should still complete: %q %v", v, err)
	}
}

func TestCallTimeout(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := newBlockingProducer()
	defer close(producer.release)

	start := time.Now()
	_, err := CallTimeout(context.Background(), ex, NewOperation("slow", producer.Produce), 20*time.Millisecond)
	if apierr.KindOf(err) != apierr.KindTimeout {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout should not wait for the producer")
	}
}

func TestCall_DefaultTimeout(t *testing.T) {
	ex := newExecutor(t, Options{DefaultTimeout: 20 * time.Millisecond})
	producer := newBlockingProducer()
	defer close(producer.release)

	_, err := Call(context.Background(), ex, NewOperation("slow", producer.Produce))
	if apierr.KindOf(err) != apierr.KindTimeout {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestCall_ParentCancel(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := newBlockingProducer()
	defer close(producer.release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-producer.started
		cancel()
	}()

	_, err := Call(ctx, ex, NewOperation("slow", producer.Produce))
	if apierr.KindOf(err) != apierr.KindCanceled {
		t.Fatalf("expected CanceledError, got %v", err)
	}
}

func TestSingle_IsColdAndResubscribes(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := &countingProducer{value: &quote{}}
	single := Defer(ex, NewOperation("x", producer.Produce))

	time.Sleep(10 * time.Millisecond)
	if producer.calls.Load() != 0 {
		t.Fatal("Defer must not start work")
	}

	subscribeAndWait(t, single)
	subscribeAndWait(t, single)
	if producer.calls.Load() != 2 {
		t.Errorf("expected re-subscription to re-execute, got %d calls", producer.calls.Load())
	}
}

func TestSingle_UnsubscribeSuppressesDelivery(t *testing.T) {
	ex := newExecutor(t, Options{})
	producer := newBlockingProducer()

	var delivered atomic.Bool
	sub := Defer(ex, NewOperation("slow", producer.Produce)).Subscribe(context.Background(), Observer[string]{
		OnSuccess: func(string) { delivered.Store(true) },
		OnError:   func(*apierr.Error) { delivered.Store(true) },
	})
	<-producer.started

	sub.Unsubscribe()
	close(producer.release)
	<-sub.Done()
	time.Sleep(20 * time.Millisecond)

	if delivered.Load() {
		t.Error("no event may be delivered after Unsubscribe")
	}
	if !sub.Disposed() {
		t.Error("expected subscription to be disposed")
	}
}

func TestProducerPanicBecomesUnknownError(t *testing.T) {
	ex := newExecutor(t, Options{})
	op := NewOperation("panics", func(ctx context.Context) (int, error) {
		panic("boom")
	})

	_, err := Call(context.Background(), ex, op)
	if apierr.KindOf(err) != apierr.KindUnknown {
		t.Errorf("expected UnknownError, got %v", err)
	}
}

func TestCoalesce_ConcurrentMissesShareOneCall(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache(), Coalesce: true})
	producer := newBlockingProducer()
	op := NewOperation("tokens", producer.Produce, Cached("tokens:1", domain.ResourceToken))

	futures := make([]*Future[string], 8)
	for i := range futures {
		futures[i] = Go(context.Background(), ex, op)
	}
	<-producer.started
	time.Sleep(100 * time.Millisecond)
	close(producer.release)

	for i, f := range futures {
		v, err := f.Get(context.Background())
		if err != nil || v != "late value" {
			t.Errorf("future %d: %q %v", i, v, err)
		}
	}
	if producer.calls.Load() != 1 {
		t.Errorf("expected 1 coalesced producer call, got %d", producer.calls.Load())
	}
}

func TestCoalesce_CancellingOneCallerLeavesOthers(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache(), Coalesce: true})
	producer := newBlockingProducer()
	op := NewOperation("tokens", producer.Produce, Cached("tokens:1", domain.ResourceToken))
	ctx := context.Background()

	a := Go(ctx, ex, op)
	<-producer.started
	b := Go(ctx, ex, op)
	time.Sleep(50 * time.Millisecond)

	if !a.Cancel() {
		t.Fatal("expected Cancel to settle the first future")
	}
	close(producer.release)

	v, err := b.Get(ctx)
	if err != nil || v != "late value" {
		t.Fatalf("expected the shared value, got %q %v", v, err)
	}
	if _, err := a.Get(ctx); apierr.KindOf(err) != apierr.KindCanceled {
		t.Errorf("expected CanceledError for the cancelled future, got %v", err)
	}
	if producer.calls.Load() != 1 {
		t.Errorf("expected 1 coalesced producer call, got %d", producer.calls.Load())
	}
}

func TestCoalesce_WaitersGetPrivateCopies(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache(), Coalesce: true})
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	op := NewOperation("prices", func(ctx context.Context) (map[string]string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return map[string]string{"eth": "100"}, nil
	}, Cached("price:1", domain.ResourcePrice))
	ctx := context.Background()

	a := Go(ctx, ex, op)
	<-started
	b := Go(ctx, ex, op)
	time.Sleep(50 * time.Millisecond)
	close(release)

	va, err := a.Get(ctx)
	if err != nil {
		t.Fatalf("first waiter: %v", err)
	}
	va["eth"] = "tampered"

	vb, err := b.Get(ctx)
	if err != nil {
		t.Fatalf("second waiter: %v", err)
	}
	if vb["eth"] != "100" {
		t.Errorf("second waiter saw the first waiter's mutation: %v", vb)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 coalesced producer call, got %d", calls.Load())
	}
}

func TestCoalesce_WaiterHonoursOwnDeadline(t *testing.T) {
	ex := newExecutor(t, Options{Cache: newCache(), Coalesce: true})
	producer := newBlockingProducer()
	defer close(producer.release)
	op := NewOperation("tokens", producer.Produce, Cached("tokens:1", domain.ResourceToken))

	_, err := CallTimeout(context.Background(), ex, op, 30*time.Millisecond)
	if apierr.KindOf(err) != apierr.KindTimeout {
		t.Errorf("expected TimeoutError, got %v", err)
	}
}

func TestExecutor_ClosedRejectsFutures(t *testing.T) {
	ex := New(Options{Logger: quietLogger()})
	_ = ex.Close()

	_, err := Go(context.Background(), ex, NewOperation("x", (&countingProducer{}).Produce)).Get(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestExecutor_CloseDetachesInFlightFutures(t *testing.T) {
	ex := New(Options{Logger: quietLogger()})
	producer := newBlockingProducer()
	defer close(producer.release)

	f := Go(context.Background(), ex, NewOperation("slow", producer.Produce))
	<-producer.started

	_ = ex.Close()

	_, err := f.Get(context.Background())
	if apierr.KindOf(err) != apierr.KindCanceled {
		t.Errorf("expected CanceledError after Close, got %v", err)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		err := pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		}, func(error) { wg.Done() })
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, got %d", peak.Load())
	}
}

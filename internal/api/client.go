// Package api exposes the aggregation API endpoints as executable operations.
//
// Each service method ending in Op returns an exec.Operation that can be run
// through any facade of the execution core. The remaining methods are blocking
// conveniences built on those operations.
package api

import (
	"fmt"
	"log/slog"

	"github.com/vietddude/dexagg/internal/core/config"
	"github.com/vietddude/dexagg/internal/core/exec"
	"github.com/vietddude/dexagg/internal/infra/cache"
	"github.com/vietddude/dexagg/internal/infra/httpapi"
)

// Client is the constructed context shared by all services. It owns the
// transport, the executor and the response cache.
type Client struct {
	http     *httpapi.Client
	executor *exec.Executor
	cache    *cache.Cache
	logger   *slog.Logger

	Swap      *SwapService
	Tokens    *TokenService
	Balances  *BalanceService
	Prices    *PriceService
	Orderbook *OrderbookService
	History   *HistoryService
	Portfolio *PortfolioService
}

type options struct {
	logger    *slog.Logger
	store     cache.Store
	cacheOpts []cache.Option
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger for every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore replaces the store selected by configuration.
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

// WithCacheOptions passes options to the response cache.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// New wires transport, cache and executor from cfg.
func New(cfg *config.AppConfig, opts ...Option) (*Client, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient, err := httpapi.NewClient(cfg.API, o.logger.With("component", "httpapi"))
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	store := o.store
	if store == nil && cfg.Cache.Store != config.StoreNone {
		store, err = newStore(cfg)
		if err != nil {
			_ = httpClient.Close()
			return nil, err
		}
	}

	var responseCache *cache.Cache
	if store != nil {
		cacheOpts := append([]cache.Option{cache.WithLogger(o.logger.With("component", "cache"))}, o.cacheOpts...)
		responseCache = cache.New(store, cache.DefaultPolicy().Merge(cfg.Cache.TTL), cacheOpts...)
	}

	executor := exec.New(exec.Options{
		Cache:          responseCache,
		Workers:        cfg.Executor.Workers,
		Coalesce:       cfg.Executor.Coalesce,
		DefaultTimeout: cfg.Executor.Timeout,
		Logger:         o.logger.With("component", "exec"),
	})

	c := &Client{
		http:     httpClient,
		executor: executor,
		cache:    responseCache,
		logger:   o.logger,
	}
	c.Swap = &SwapService{c: c}
	c.Tokens = &TokenService{c: c}
	c.Balances = &BalanceService{c: c}
	c.Prices = &PriceService{c: c}
	c.Orderbook = &OrderbookService{c: c}
	c.History = &HistoryService{c: c}
	c.Portfolio = &PortfolioService{c: c}
	return c, nil
}

func newStore(cfg *config.AppConfig) (cache.Store, error) {
	switch cfg.Cache.Store {
	case config.StoreRedis:
		s, err := cache.NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		return s, nil
	default:
		s := cache.NewMemoryStore()
		if cfg.Cache.SweepInterval > 0 {
			s.StartSweeper(cfg.Cache.SweepInterval)
		}
		return s, nil
	}
}

// Executor returns the execution core so callers can run operations through
// the reactive and future facades.
func (c *Client) Executor() *exec.Executor {
	return c.executor
}

// Monitor returns the upstream health monitor.
func (c *Client) Monitor() *httpapi.Monitor {
	return c.http.Monitor
}

// Close shuts down the executor, then releases the cache and transport.
func (c *Client) Close() error {
	var firstErr error
	if err := c.executor.Close(); err != nil {
		firstErr = err
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.http.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

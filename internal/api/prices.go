package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/vietddude/dexagg/internal/core/aggregate"
	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
)

const (
	// DefaultCurrency prices tokens in US dollars.
	DefaultCurrency = "USD"

	// DefaultPriceBatch is the number of tokens per upstream price request.
	DefaultPriceBatch = 50
)

// PriceService reads spot prices. Results are cached under the price class.
type PriceService struct {
	c *Client
}

// PricesOp returns USD prices of tokens on chain.
func (s *PriceService) PricesOp(chain domain.ChainID, tokens []string) exec.Operation[domain.Prices] {
	return s.PricesInOp(chain, tokens, DefaultCurrency)
}

// PricesInOp returns prices of tokens on chain quoted in currency.
func (s *PriceService) PricesInOp(chain domain.ChainID, tokens []string, currency string) exec.Operation[domain.Prices] {
	addrs := normalizeAddresses(chain, tokens)
	currency = strings.ToUpper(currency)
	joined := strings.Join(addrs, ",")

	return exec.NewOperation("prices.spot",
		fetch[domain.Prices](s.c, get("/price/v1.1/{chain}/{tokens}",
			"/price/v1.1/"+chain.String()+"/"+joined, url.Values{"currency": {currency}})),
		exec.Cached(cacheKey("price", chain.String(), currency, joined), domain.ResourcePrice),
		exec.Validated(func() error {
			return apierr.Validate(
				apierr.RequireChain(chain),
				apierr.RequireAddresses(chain, "tokens", tokens),
				apierr.RequireNonEmpty("currency", currency),
			)
		}),
	)
}

// Prices runs PricesOp and blocks for the result.
func (s *PriceService) Prices(ctx context.Context, chain domain.ChainID, tokens []string) (domain.Prices, error) {
	return exec.Call(ctx, s.c.executor, s.PricesOp(chain, tokens))
}

// PricesBatched splits tokens into batches of batchSize, fetches the batches
// concurrently and flattens them into one price map. Tokens of a failed batch
// are reported in failed with that batch's error. err is non-nil only for
// invalid input.
func (s *PriceService) PricesBatched(ctx context.Context, chain domain.ChainID, tokens []string, batchSize int) (prices domain.Prices, failed map[string]*apierr.Error, err error) {
	if batchSize <= 0 {
		batchSize = DefaultPriceBatch
	}

	batches := aggregate.Chunk(normalizeAddresses(chain, tokens), batchSize)
	ops := make([]aggregate.Keyed[int, domain.Prices], len(batches))
	for i, batch := range batches {
		ops[i] = aggregate.Keyed[int, domain.Prices]{Key: i, Op: s.PricesOp(chain, batch)}
	}

	result, err := aggregate.Run(ctx, s.c.executor, ops)
	if err != nil {
		return nil, nil, err
	}

	prices = make(domain.Prices, len(tokens))
	failed = make(map[string]*apierr.Error)
	for i, outcome := range result.Outcomes {
		if !outcome.OK() {
			for _, token := range batches[i] {
				failed[token] = outcome.Err
			}
			continue
		}
		for token, price := range outcome.Value {
			prices[normalizeAddress(chain, token)] = price
		}
	}
	return prices, failed, nil
}

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

// PortfolioService reads the current value of wallets. Results are cached
// under the portfolio class.
type PortfolioService struct {
	c *Client
}

type portfolioResponse struct {
	Result domain.PortfolioOverview `json:"result"`
}

// OverviewOp values wallets across every supported chain.
func (s *PortfolioService) OverviewOp(wallets []string) exec.Operation[domain.PortfolioOverview] {
	return s.ChainOverviewOp("", wallets)
}

// ChainOverviewOp values wallets on a single chain. An empty chain means all chains.
func (s *PortfolioService) ChainOverviewOp(chain domain.ChainID, wallets []string) exec.Operation[domain.PortfolioOverview] {
	addrs := normalizeAddresses(domain.ChainIDEthereum, wallets)

	const path = "/portfolio/portfolio/v4/overview/erc20/current_value"
	q := url.Values{"addresses": addrs}
	if chain != "" {
		q.Set("chain_id", chain.String())
	}
	req := get(path, path, q)

	produce := fetch[portfolioResponse](s.c, req)
	scope := chain.String()
	if scope == "" {
		scope = "all"
	}

	return exec.NewOperation("portfolio.overview",
		func(ctx context.Context) (domain.PortfolioOverview, error) {
			resp, err := produce(ctx)
			return resp.Result, err
		},
		exec.Cached(cacheKey("portfolio", scope, strings.Join(addrs, ",")), domain.ResourcePortfolio),
		exec.Validated(func() error {
			if chain != "" {
				if err := apierr.RequireChain(chain); err != nil {
					return err
				}
			}
			return apierr.RequireAddresses(domain.ChainIDEthereum, "wallets", wallets)
		}),
	)
}

// Overview runs OverviewOp and blocks for the result.
func (s *PortfolioService) Overview(ctx context.Context, wallets []string) (domain.PortfolioOverview, error) {
	return exec.Call(ctx, s.c.executor, s.OverviewOp(wallets))
}

// MultiChain values wallet on each of chains concurrently, reporting one
// outcome per chain.
func (s *PortfolioService) MultiChain(ctx context.Context, wallet string, chains []domain.ChainID) (aggregate.Result[domain.ChainID, domain.PortfolioOverview], error) {
	ops := make([]aggregate.Keyed[domain.ChainID, domain.PortfolioOverview], 0, len(chains))
	for _, chain := range chains {
		ops = append(ops, aggregate.Keyed[domain.ChainID, domain.PortfolioOverview]{
			Key: chain,
			Op:  s.ChainOverviewOp(chain, []string{wallet}),
		})
	}
	return aggregate.Run(ctx, s.c.executor, ops)
}

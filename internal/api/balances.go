package api

import (
	"context"

	"github.com/vietddude/dexagg/internal/core/aggregate"
	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
)

// BalanceService reads wallet balances. Balances are never cached.
type BalanceService struct {
	c *Client
}

// BalancesOp returns every token balance of wallet on chain.
func (s *BalanceService) BalancesOp(chain domain.ChainID, wallet string) exec.Operation[domain.Balances] {
	return exec.NewOperation("balances.wallet",
		fetch[domain.Balances](s.c, get("/balance/v1.2/{chain}/balances/{wallet}",
			"/balance/v1.2/"+chain.String()+"/balances/"+normalizeAddress(chain, wallet), nil)),
		exec.Idempotent(),
		exec.Validated(func() error {
			return apierr.Validate(
				apierr.RequireChain(chain),
				apierr.RequireAddress(chain, "wallet", wallet),
			)
		}),
	)
}

func (s *BalanceService) Balances(ctx context.Context, chain domain.ChainID, wallet string) (domain.Balances, error) {
	return exec.Call(ctx, s.c.executor, s.BalancesOp(chain, wallet))
}

// MultiWallet fetches the balances of several wallets concurrently. Each
// wallet reports its own outcome; one failing wallet does not hide the others.
func (s *BalanceService) MultiWallet(ctx context.Context, chain domain.ChainID, wallets []string) (aggregate.Result[string, domain.Balances], error) {
	ops := make([]aggregate.Keyed[string, domain.Balances], 0, len(wallets))
	for _, w := range normalizeAddresses(chain, wallets) {
		ops = append(ops, aggregate.Keyed[string, domain.Balances]{Key: w, Op: s.BalancesOp(chain, w)})
	}
	return aggregate.Run(ctx, s.c.executor, ops)
}

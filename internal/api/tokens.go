package api

import (
	"context"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
)

// TokenService reads token metadata. Results are cached under the token class.
type TokenService struct {
	c *Client
}

// TokensOp lists the tokens the aggregator routes on chain.
func (s *TokenService) TokensOp(chain domain.ChainID) exec.Operation[domain.TokenList] {
	return exec.NewOperation("tokens.list",
		fetch[domain.TokenList](s.c, get("/token/v1.2/{chain}", "/token/v1.2/"+chain.String(), nil)),
		exec.Cached(cacheKey("tokens", chain.String()), domain.ResourceToken),
		exec.Validated(func() error { return apierr.RequireChain(chain) }),
	)
}

// List runs TokensOp and blocks for the result.
func (s *TokenService) List(ctx context.Context, chain domain.ChainID) (domain.TokenList, error) {
	return exec.Call(ctx, s.c.executor, s.TokensOp(chain))
}

// TokenOp fetches metadata of a single token.
func (s *TokenService) TokenOp(chain domain.ChainID, address string) exec.Operation[domain.Token] {
	addr := normalizeAddress(chain, address)
	return exec.NewOperation("tokens.get",
		fetch[domain.Token](s.c, get("/token/v1.2/{chain}/custom/{address}", "/token/v1.2/"+chain.String()+"/custom/"+addr, nil)),
		exec.Cached(cacheKey("token", chain.String(), addr), domain.ResourceToken),
		exec.Validated(func() error {
			return apierr.Validate(
				apierr.RequireChain(chain),
				apierr.RequireAddress(chain, "address", address),
			)
		}),
	)
}

func (s *TokenService) Token(ctx context.Context, chain domain.ChainID, address string) (domain.Token, error) {
	return exec.Call(ctx, s.c.executor, s.TokenOp(chain, address))
}

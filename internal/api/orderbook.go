package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
)

// OrderbookService reads the limit order book.
type OrderbookService struct {
	c *Client
}

// OrdersByMakerOp lists the active limit orders of maker on chain. Only EVM
// chains carry an order book.
func (s *OrderbookService) OrdersByMakerOp(chain domain.ChainID, maker string) exec.Operation[[]domain.LimitOrder] {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(100))
	q.Set("statuses", "1")

	return exec.NewOperation("orderbook.maker",
		fetch[[]domain.LimitOrder](s.c, get("/orderbook/v4.0/{chain}/address/{maker}",
			"/orderbook/v4.0/"+chain.String()+"/address/"+normalizeAddress(chain, maker), q)),
		exec.Idempotent(),
		exec.Validated(func() error {
			if err := apierr.RequireChain(chain); err != nil {
				return err
			}
			if chain.Network() != domain.NetworkTypeEVM {
				return apierr.Invalid("chain", "order book is only available on EVM chains")
			}
			return apierr.RequireAddress(chain, "maker", maker)
		}),
	)
}

func (s *OrderbookService) OrdersByMaker(ctx context.Context, chain domain.ChainID, maker string) ([]domain.LimitOrder, error) {
	return exec.Call(ctx, s.c.executor, s.OrdersByMakerOp(chain, maker))
}

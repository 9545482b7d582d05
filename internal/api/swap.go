package api

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
)

var (
	maxFee      = decimal.NewFromInt(3)
	maxSlippage = decimal.NewFromInt(50)
)

// SwapService quotes and builds swaps. Quotes move with the market and are never cached.
type SwapService struct {
	c *Client
}

func validateQuote(req domain.QuoteRequest) error {
	return apierr.Validate(
		apierr.RequireChain(req.ChainID),
		apierr.RequireAddress(req.ChainID, "src", req.Src),
		apierr.RequireAddress(req.ChainID, "dst", req.Dst),
		apierr.RequireAmount("amount", req.Amount),
		apierr.RequireRange("fee", req.Fee, decimal.Zero, maxFee),
	)
}

func quoteQuery(req domain.QuoteRequest) url.Values {
	q := url.Values{}
	q.Set("src", req.Src)
	q.Set("dst", req.Dst)
	q.Set("amount", req.Amount)
	if !req.Fee.IsZero() {
		q.Set("fee", req.Fee.String())
	}
	return q
}

// QuoteOp finds the best rate for swapping Amount of Src into Dst.
func (s *SwapService) QuoteOp(req domain.QuoteRequest) exec.Operation[domain.Quote] {
	q := quoteQuery(req)
	q.Set("includeTokensInfo", "true")
	q.Set("includeGas", "true")

	return exec.NewOperation("swap.quote",
		fetch[domain.Quote](s.c, get("/swap/v6.0/{chain}/quote", "/swap/v6.0/"+req.ChainID.String()+"/quote", q)),
		exec.Idempotent(),
		exec.Validated(func() error { return validateQuote(req) }),
	)
}

// Quote runs QuoteOp and blocks for the result.
func (s *SwapService) Quote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	return exec.Call(ctx, s.c.executor, s.QuoteOp(req))
}

// SwapOp builds the transaction executing req.
func (s *SwapService) SwapOp(req domain.SwapRequest) exec.Operation[domain.Swap] {
	q := quoteQuery(req.QuoteRequest)
	q.Set("from", req.From)
	q.Set("origin", req.From)
	q.Set("slippage", req.Slippage.String())
	if req.Receiver != "" {
		q.Set("receiver", req.Receiver)
	}

	validate := func() error {
		err := apierr.Validate(
			validateQuote(req.QuoteRequest),
			apierr.RequireAddress(req.ChainID, "from", req.From),
			apierr.RequireRange("slippage", req.Slippage, decimal.Zero, maxSlippage),
		)
		if err != nil || req.Receiver == "" {
			return err
		}
		return apierr.RequireAddress(req.ChainID, "receiver", req.Receiver)
	}

	return exec.NewOperation("swap.build",
		fetch[domain.Swap](s.c, get("/swap/v6.0/{chain}/swap", "/swap/v6.0/"+req.ChainID.String()+"/swap", q)),
		exec.Validated(validate),
	)
}

// Swap runs SwapOp and blocks for the result.
func (s *SwapService) Swap(ctx context.Context, req domain.SwapRequest) (domain.Swap, error) {
	return exec.Call(ctx, s.c.executor, s.SwapOp(req))
}

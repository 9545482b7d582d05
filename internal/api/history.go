package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
)

// MaxHistoryLimit caps the page size of history requests.
const MaxHistoryLimit = 10000

// HistoryService reads wallet transaction history.
type HistoryService struct {
	c *Client
}

// EventsOp returns up to limit of the most recent events of an EVM wallet
// across chains.
func (s *HistoryService) EventsOp(wallet string, limit int) exec.Operation[domain.HistoryPage] {
	addr := normalizeAddress(domain.ChainIDEthereum, wallet)

	return exec.NewOperation("history.events",
		fetch[domain.HistoryPage](s.c, get("/history/v2.0/history/{wallet}/events",
			"/history/v2.0/history/"+addr+"/events", url.Values{"limit": {strconv.Itoa(limit)}})),
		exec.Idempotent(),
		exec.Validated(func() error {
			return apierr.Validate(
				apierr.RequireAddress(domain.ChainIDEthereum, "wallet", wallet),
				apierr.RequireRange("limit", decimal.NewFromInt(int64(limit)), decimal.NewFromInt(1), decimal.NewFromInt(MaxHistoryLimit)),
			)
		}),
	)
}

// Events runs EventsOp and blocks for the result.
func (s *HistoryService) Events(ctx context.Context, wallet string, limit int) (domain.HistoryPage, error) {
	return exec.Call(ctx, s.c.executor, s.EventsOp(wallet, limit))
}

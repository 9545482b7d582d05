package api

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
	"github.com/vietddude/dexagg/internal/infra/httpapi"
)

// fetch returns a producer issuing req and decoding the body into T.
func fetch[T any](c *Client, req httpapi.Request) exec.Producer[T] {
	return func(ctx context.Context) (T, error) {
		return httpapi.DoJSON[T](ctx, c.http, req)
	}
}

func get(route, path string, query url.Values) httpapi.Request {
	return httpapi.Request{Route: route, Path: path, Query: query}
}

// normalizeAddress lowercases hex addresses. Base58 is case sensitive.
func normalizeAddress(chain domain.ChainID, addr string) string {
	addr = strings.TrimSpace(addr)
	if chain.Network() == domain.NetworkTypeSolana {
		return addr
	}
	return strings.ToLower(addr)
}

// normalizeAddresses normalizes, dedupes and sorts addrs so equivalent
// requests share one cache key.
func normalizeAddresses(chain domain.ChainID, addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, normalizeAddress(chain, a))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

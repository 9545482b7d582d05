package apierr

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/vietddude/dexagg/internal/core/domain"
)

// Validate returns the first non-nil check.
func Validate(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// RequireNonEmpty rejects blank strings.
func RequireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field, "required")
	}
	return nil
}

// RequireChain rejects chains the aggregator does not serve.
func RequireChain(chain domain.ChainID) error {
	if chain == "" {
		return Invalid("chain", "required")
	}
	if !chain.IsSupported() {
		return Invalid("chain", "unsupported chain "+string(chain))
	}
	return nil
}

// RequireAddress checks addr against the address format of chain.
func RequireAddress(chain domain.ChainID, field, addr string) error {
	if err := RequireNonEmpty(field, addr); err != nil {
		return err
	}
	switch chain.Network() {
	case domain.NetworkTypeSolana:
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return Invalid(field, "malformed solana address")
		}
	default:
		if !common.IsHexAddress(addr) {
			return Invalid(field, "malformed hex address")
		}
	}
	return nil
}

// RequireAddresses applies RequireAddress to every element and rejects empty lists.
func RequireAddresses(chain domain.ChainID, field string, addrs []string) error {
	if len(addrs) == 0 {
		return Invalid(field, "at least one address required")
	}
	for _, a := range addrs {
		if err := RequireAddress(chain, field, a); err != nil {
			return err
		}
	}
	return nil
}

// RequireAmount accepts a positive integer amount in base units.
func RequireAmount(field, amount string) error {
	if err := RequireNonEmpty(field, amount); err != nil {
		return err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Invalid(field, "not a number")
	}
	if !d.IsPositive() {
		return Invalid(field, "must be positive")
	}
	if !d.Equal(d.Truncate(0)) {
		return Invalid(field, "must be an integer amount in base units")
	}
	return nil
}

// RequireRange checks lo <= v <= hi.
func RequireRange(field string, v, lo, hi decimal.Decimal) error {
	if v.LessThan(lo) || v.GreaterThan(hi) {
		return Invalid(field, "out of range ["+lo.String()+", "+hi.String()+"]")
	}
	return nil
}

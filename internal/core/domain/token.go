package domain

import "github.com/shopspring/decimal"

// Token is token metadata.
type Token struct {
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals int      `json:"decimals"`
	LogoURI  string   `json:"logoURI,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// TokenList maps lowercase token address to metadata.
type TokenList map[string]Token

// Balances maps token address to balance in base units.
type Balances map[string]decimal.Decimal

// Prices maps token address to price in the requested currency.
type Prices map[string]decimal.Decimal

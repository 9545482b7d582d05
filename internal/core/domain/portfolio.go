package domain

import "github.com/shopspring/decimal"

// PortfolioOverview is the current value of a set of wallets, broken down by chain.
type PortfolioOverview struct {
	Total  decimal.Decimal  `json:"total"`
	Chains []ChainPortfolio `json:"by_chain"`
}

// ChainPortfolio is the value held on one chain.
type ChainPortfolio struct {
	ChainID   int             `json:"chain_id"`
	ChainName string          `json:"chain_name"`
	ValueUSD  decimal.Decimal `json:"value_usd"`
}

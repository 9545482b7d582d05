package domain

import "github.com/shopspring/decimal"

// QuoteRequest describes a swap quote query.
type QuoteRequest struct {
	ChainID ChainID
	Src     string
	Dst     string
	Amount  string // base units
	// Optional fee in percent, 0 = none.
	Fee decimal.Decimal
}

// Quote is the upstream's answer to a quote query.
type Quote struct {
	SrcToken  *Token          `json:"srcToken,omitempty"`
	DstToken  *Token          `json:"dstToken,omitempty"`
	DstAmount decimal.Decimal `json:"dstAmount"`
	Gas       uint64          `json:"gas,omitempty"`
}

// SwapRequest extends a quote with the execution parameters.
type SwapRequest struct {
	QuoteRequest
	From     string
	Slippage decimal.Decimal // percent, 0-50
	Receiver string
}

// SwapTx is the transaction the caller must sign to execute a swap.
type SwapTx struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Data     string          `json:"data"`
	Value    decimal.Decimal `json:"value"`
	Gas      uint64          `json:"gas"`
	GasPrice decimal.Decimal `json:"gasPrice"`
}

// Swap holds the quoted amount together with the transaction to sign.
type Swap struct {
	DstAmount decimal.Decimal `json:"dstAmount"`
	Tx        SwapTx          `json:"tx"`
}

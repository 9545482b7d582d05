package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitOrder is an active order in the limit order book.
type LimitOrder struct {
	OrderHash            string          `json:"orderHash"`
	Signature            string          `json:"signature"`
	CreateDateTime       time.Time       `json:"createDateTime"`
	RemainingMakerAmount decimal.Decimal `json:"remainingMakerAmount"`
	Data                 LimitOrderData  `json:"data"`
}

// LimitOrderData is the signed order payload.
type LimitOrderData struct {
	Maker        string          `json:"maker"`
	MakerAsset   string          `json:"makerAsset"`
	TakerAsset   string          `json:"takerAsset"`
	MakingAmount decimal.Decimal `json:"makingAmount"`
	TakingAmount decimal.Decimal `json:"takingAmount"`
	Salt         string          `json:"salt"`
}

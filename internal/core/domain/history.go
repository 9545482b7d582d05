package domain

// HistoryEvent is a single wallet history entry.
type HistoryEvent struct {
	ID        string         `json:"id"`
	Address   string         `json:"address"`
	Type      int            `json:"type"`
	Rating    string         `json:"rating"`
	TimeMs    int64          `json:"timeMs"`
	Direction string         `json:"direction"`
	Details   HistoryDetails `json:"details"`
}

// HistoryDetails describes the transaction behind a history entry.
type HistoryDetails struct {
	TxHash      string `json:"txHash"`
	ChainID     int    `json:"chainId"`
	BlockNumber uint64 `json:"blockNumber"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	FeeInWei    string `json:"feeInWei"`
}

// HistoryPage is one page of wallet history.
type HistoryPage struct {
	Items      []HistoryEvent `json:"items"`
	CacheCount int            `json:"cache_counter"`
}

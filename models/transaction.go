package models

import "time"

// TransactionSummary is one entry of an account's on-chain history as
// reported by the gateway, most recent first.
type TransactionSummary struct {
	ID            string    `json:"id"`
	Hash          string    `json:"hash"`
	Ledger        int32     `json:"ledger"`
	SourceAccount string    `json:"source_account"`
	FeeCharged    string    `json:"fee_charged"`
	MemoType      string    `json:"memo_type,omitempty"`
	Memo          string    `json:"memo,omitempty"`
	Successful    bool      `json:"successful"`
	CreatedAt     time.Time `json:"created_at"`
}

// OperationSummary is one operation inside a transaction.
type OperationSummary struct {
	ID              string    `json:"id"`
	TransactionHash string    `json:"transaction_hash"`
	Type            string    `json:"type"`
	From            string    `json:"from,omitempty"`
	To              string    `json:"to,omitempty"`
	Amount          string    `json:"amount,omitempty"`
	AssetType       string    `json:"asset_type,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

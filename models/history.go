package models

import "time"

// History record types.
const (
	HistorySend    = "send"
	HistoryReceive = "receive"
	HistoryCreate  = "create"
)

// History record statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// HistoryRecord is one locally persisted wallet event. The core only
// produces the hash and status; writing the record is the caller's job.
type HistoryRecord struct {
	ID          int64     `json:"id"`
	Address     string    `json:"address"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	AssetCode   string    `json:"asset_code"`
	Counterpart string    `json:"counterpart"`
	Hash        string    `json:"hash"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

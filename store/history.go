// Package store persists local wallet history records. The core only hands
// it plain strings and numbers; it never reads ledger state from here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cryppy/wallet-core/models"
)

// History writes and reads wallet history records.
type History struct {
	db *sql.DB
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// Record inserts one history entry and returns its id.
func (h *History) Record(ctx context.Context, rec models.HistoryRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := h.db.QueryRowContext(ctx, `
		INSERT INTO wallet_history (address, type, amount, asset_code, counterpart, hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		rec.Address, rec.Type, rec.Amount, rec.AssetCode, rec.Counterpart,
		rec.Hash, rec.Status, rec.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record history entry: %w", err)
	}
	return id, nil
}

// UpdateStatus moves a record identified by its transaction hash to a new
// status.
func (h *History) UpdateStatus(ctx context.Context, hash, status string) error {
	_, err := h.db.ExecContext(ctx,
		`UPDATE wallet_history SET status = $1 WHERE hash = $2`, status, hash)
	if err != nil {
		return fmt.Errorf("failed to update history status: %w", err)
	}
	return nil
}

// ByAddress lists an address's records, most recent first.
func (h *History) ByAddress(ctx context.Context, address string, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, address, type, amount, asset_code, counterpart, hash, status, created_at
		FROM wallet_history
		WHERE address = $1
		ORDER BY created_at DESC
		LIMIT $2`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		var counterpart, hash sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Address, &rec.Type, &rec.Amount,
			&rec.AssetCode, &counterpart, &hash, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if counterpart.Valid {
			rec.Counterpart = counterpart.String
		}
		if hash.Valid {
			rec.Hash = hash.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

package model

import "time"

// StockSettings is the per-profile configuration aggregate. Same append-only
// event pattern as StockRequest, with a single threshold value per event.
type StockSettings struct {
	ID             string    `db:"id"`
	ProfileID      string    `db:"profile_id"`
	CurrentEventID *string   `db:"current_event_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type StockSettingsEvent struct {
	ID         string    `db:"id"`
	SettingsID string    `db:"settings_id"`
	Threshold  int       `db:"threshold"`
	CreatedBy  *string   `db:"created_by"`
	CreatedAt  time.Time `db:"created_at"`
}

// DefaultThreshold flags low stock only when completely out of stock.
const DefaultThreshold = 0

// IsLowStock reports whether availability is at or below the threshold.
func IsLowStock(available, threshold int) bool {
	return available <= threshold
}

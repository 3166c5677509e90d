package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert is a request to be notified when an asset trades near a target price.
type Alert struct {
	AssetID     string          `json:"asset_id"`
	TargetPrice decimal.Decimal `json:"target_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Notification is what a fired alert hands to the notification senders.
type Notification struct {
	AssetID      string          `json:"asset_id"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	TargetPrice  decimal.Decimal `json:"target_price"`
	FiredAt      time.Time       `json:"fired_at"`
}

// Entry is a single record of a namespaced key-value backend.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

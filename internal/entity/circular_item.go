package entity

import (
	"time"
)

// CircularItem is the persisted form of an extracted product. Rows are owned
// by the retailer-scoped load operation and replaced wholesale on reload.
type CircularItem struct {
	ID              int64      `json:"id"`
	Retailer        string     `json:"retailer"`
	ItemName        string     `json:"item_name"`
	Price           float64    `json:"price"`
	RegularPrice    *float64   `json:"regular_price,omitempty"`
	DiscountPercent *float64   `json:"discount_percent,omitempty"`
	Unit            string     `json:"unit"`
	Category        *string    `json:"category,omitempty"`
	Source          string     `json:"source"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

package models

import "time"

// StockCount holds the manual counts taken at close for one item kind.
// Sold is only meaningful for drinks, which have no POS-derived signal.
type StockCount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BusinessDate time.Time `gorm:"uniqueIndex:idx_count_date_kind;not null" json:"business_date"`
	ItemKind     string    `gorm:"size:64;uniqueIndex:idx_count_date_kind;not null" json:"item_kind"`
	Sold         *float64  `json:"sold"`
	Closing      *float64  `json:"closing"`
	Note         string    `gorm:"size:255" json:"note"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

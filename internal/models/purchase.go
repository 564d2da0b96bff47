package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is one line of the purchase tally (rolls, meat grams or a drink brand).
type Purchase struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BusinessDate time.Time       `gorm:"index:idx_purchase_date_kind;not null" json:"business_date"`
	ItemKind     string          `gorm:"size:64;index:idx_purchase_date_kind;not null" json:"item_kind"`
	Quantity     float64         `gorm:"not null" json:"quantity"` // pcs for rolls/drinks, grams for meat
	Supplier     string          `gorm:"size:100" json:"supplier"`
	AmountTHB    decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"amount_thb"`
	Staff        string          `gorm:"size:100" json:"staff"`
	Note         string          `gorm:"size:255" json:"note"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

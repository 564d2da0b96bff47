package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQR   PaymentMethod = "qr"
	PaymentGrab PaymentMethod = "grab"
)

// Receipt is a POS receipt as delivered by the POS sync.
type Receipt struct {
	ID            string          `gorm:"primaryKey;size:64"`
	ReceiptAt     time.Time       `gorm:"index;not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Lines         []ReceiptLine
	CreatedAt     time.Time
}

type ReceiptLine struct {
	ID        uint    `gorm:"primaryKey"`
	ReceiptID string  `gorm:"size:64;index;not null"`
	ItemName  string  `gorm:"size:255;not null"`
	Quantity  float64 `gorm:"not null"`
}

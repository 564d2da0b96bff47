package models

import "time"

type LedgerStatus string

const (
	LedgerStatusPending LedgerStatus = "PENDING"
	LedgerStatusOK      LedgerStatus = "OK"
	LedgerStatusAlert   LedgerStatus = "ALERT"
)

// LedgerEntry is the stored row of the consumable ledger. Expected closing
// and variance are not columns; they are derived from the counts on read.
type LedgerEntry struct {
	ID           uint         `gorm:"primaryKey"`
	BusinessDate time.Time    `gorm:"uniqueIndex:idx_ledger_date_kind;not null"`
	ItemKind     string       `gorm:"size:64;uniqueIndex:idx_ledger_date_kind;not null"`
	Opening      float64      `gorm:"not null;default:0"`
	Purchased    float64      `gorm:"not null;default:0"`
	Sold         float64      `gorm:"not null;default:0"`
	Actual       *float64     // nil until a closing count is recorded
	Status       LedgerStatus `gorm:"size:10;not null;default:PENDING"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

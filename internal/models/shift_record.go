package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftTotals is embedded by both the POS shift summary and the manual form
// so the two sides are compared column for column.
type ShiftTotals struct {
	CashSales          decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"cash_sales"`
	QRSales            decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"qr_sales"`
	GrabSales          decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"grab_sales"`
	TotalSales         decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"total_sales"`
	ShoppingTotal      decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"shopping_total"`
	WageTotal          decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"wage_total"`
	OtherTotal         decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"other_total"`
	TotalExpenses      decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"total_expenses"`
	EstimatedNetBanked decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"estimated_net_banked"`
	ExpectedCash       decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"expected_cash"`
}

// PosShift: POS-derived shift summary for a business date.
type PosShift struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BusinessDate time.Time `gorm:"uniqueIndex;not null" json:"business_date"`
	ShiftTotals  `gorm:"embedded"`
	Source       string    `gorm:"size:20" json:"source"` // "sync" or "receipts"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ShiftForm: the daily sales & stock form filled in by staff at close.
type ShiftForm struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BusinessDate time.Time `gorm:"uniqueIndex;not null" json:"business_date"`
	CompletedBy  string    `gorm:"size:100" json:"completed_by"`
	ShiftTotals  `gorm:"embedded"`
	RollsEnd     *float64  `json:"rolls_end"`
	MeatEndGrams *float64  `json:"meat_end_grams"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ManagerReview: the manager's banking check and notes for a shift.
type ManagerReview struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	BusinessDate time.Time        `gorm:"uniqueIndex;not null" json:"business_date"`
	ActualBanked *decimal.Decimal `gorm:"type:numeric(12,2)" json:"actual_banked"`
	Note         string           `gorm:"type:text" json:"note"`
	ReviewedBy   uint             `json:"reviewed_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

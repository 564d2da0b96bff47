package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"
	"shiftcost-backend/internal/usage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes receipts and POS shift summaries. It is the
// usage.ItemSource of the running service.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ usage.ItemSource = (*Store)(nil)

// LineItems returns every receipt line paid inside w.
func (s *Store) LineItems(ctx context.Context, w shiftwindow.Window) ([]usage.LineItem, error) {
	var rows []struct {
		ItemName  string
		Quantity  float64
		ReceiptAt time.Time
	}
	err := s.db.WithContext(ctx).
		Table("receipt_lines").
		Select("receipt_lines.item_name, receipt_lines.quantity, receipts.receipt_at").
		Joins("JOIN receipts ON receipts.id = receipt_lines.receipt_id").
		Where("receipts.receipt_at >= ? AND receipts.receipt_at < ?", w.Start.UTC(), w.End.UTC()).
		Order("receipts.receipt_at, receipt_lines.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load receipt lines: %w", err)
	}
	out := make([]usage.LineItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, usage.LineItem{Name: r.ItemName, Quantity: r.Quantity, ReceiptAt: r.ReceiptAt})
	}
	return out, nil
}

// Receipts returns the receipts paid inside w.
func (s *Store) Receipts(ctx context.Context, w shiftwindow.Window) ([]models.Receipt, error) {
	var out []models.Receipt
	err := s.db.WithContext(ctx).Preload("Lines").
		Where("receipt_at >= ? AND receipt_at < ?", w.Start.UTC(), w.End.UTC()).
		Order("receipt_at").
		Find(&out).Error
	return out, err
}

// SaveReceipts inserts receipts whose id is not stored yet and returns how
// many were new. Receipts already present are left alone, so a re-sync of
// the same export is harmless.
func (s *Store) SaveReceipts(ctx context.Context, receipts []models.Receipt) (int, error) {
	imported := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range receipts {
			r := receipts[i]
			r.ReceiptAt = r.ReceiptAt.UTC()
			var n int64
			if err := tx.Model(&models.Receipt{}).Where("id = ?", r.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("receipt %s: %w", r.ID, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// Shift returns the stored POS summary of date, if any.
func (s *Store) Shift(ctx context.Context, date time.Time) (models.PosShift, bool, error) {
	var ps models.PosShift
	err := s.db.WithContext(ctx).Where("business_date = ?", date).First(&ps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PosShift{}, false, nil
	}
	return ps, err == nil, err
}

// SaveShift upserts the POS summary of date.
func (s *Store) SaveShift(ctx context.Context, date time.Time, t models.ShiftTotals, source string) (models.PosShift, error) {
	ps := models.PosShift{BusinessDate: date, ShiftTotals: t, Source: source}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cash_sales", "qr_sales", "grab_sales", "total_sales",
			"shopping_total", "wage_total", "other_total", "total_expenses",
			"estimated_net_banked", "expected_cash", "source", "updated_at",
		}),
	}).Create(&ps).Error
	if err != nil {
		return models.PosShift{}, fmt.Errorf("save pos shift: %w", err)
	}
	stored, _, err := s.Shift(ctx, date)
	return stored, err
}

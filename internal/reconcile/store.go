package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store loads the POS summaries, forms and manager reviews.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Compare(ctx context.Context, date time.Time) (ShiftComparison, error) {
	db := s.db.WithContext(ctx)

	var pos *models.ShiftTotals
	var ps models.PosShift
	err := db.Where("business_date = ?", date).First(&ps).Error
	switch {
	case err == nil:
		pos = &ps.ShiftTotals
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return ShiftComparison{}, fmt.Errorf("load pos shift: %w", err)
	}

	var form *models.ShiftTotals
	var sf models.ShiftForm
	err = db.Where("business_date = ?", date).First(&sf).Error
	switch {
	case err == nil:
		form = &sf.ShiftTotals
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return ShiftComparison{}, fmt.Errorf("load shift form: %w", err)
	}

	var banked *decimal.Decimal
	var review models.ManagerReview
	err = db.Where("business_date = ?", date).First(&review).Error
	switch {
	case err == nil:
		banked = review.ActualBanked
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return ShiftComparison{}, fmt.Errorf("load manager review: %w", err)
	}

	return Compare(date, pos, form, banked), nil
}

// Month returns the availability strip of the month holding month.
func (s *Store) Month(ctx context.Context, month time.Time) ([]DayAvailability, error) {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	dates := func(model any) (map[string]bool, error) {
		var ds []time.Time
		err := s.db.WithContext(ctx).Model(model).
			Where("business_date >= ? AND business_date < ?", from, to).
			Pluck("business_date", &ds).Error
		if err != nil {
			return nil, err
		}
		out := make(map[string]bool, len(ds))
		for _, d := range ds {
			out[d.UTC().Format(shiftwindow.DateLayout)] = true
		}
		return out, nil
	}

	pos, err := dates(&models.PosShift{})
	if err != nil {
		return nil, fmt.Errorf("pos dates: %w", err)
	}
	form, err := dates(&models.ShiftForm{})
	if err != nil {
		return nil, fmt.Errorf("form dates: %w", err)
	}
	return MonthStrip(from, pos, form), nil
}

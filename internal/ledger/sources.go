package ledger

import (
	"context"
	"errors"
	"time"

	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/usage"

	"gorm.io/gorm"
)

// GormSources reads purchases and stock counts.
type GormSources struct {
	db *gorm.DB
}

func NewGormSources(db *gorm.DB) *GormSources {
	return &GormSources{db: db}
}

func (s *GormSources) PurchasedTotal(ctx context.Context, date time.Time, kind Kind) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("business_date = ? AND item_kind = ?", day(date), string(kind)).
		Select("COALESCE(SUM(quantity), 0)").
		Row().Scan(&total)
	return total, err
}

// DrinkSold is the manual sold count, 0 when nobody counted.
func (s *GormSources) DrinkSold(ctx context.Context, date time.Time, kind Kind) (float64, error) {
	var c models.StockCount
	err := s.db.WithContext(ctx).
		Where("business_date = ? AND item_kind = ?", day(date), string(kind)).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if c.Sold == nil {
		return 0, nil
	}
	return *c.Sold, nil
}

func (s *GormSources) DrinkKinds(ctx context.Context, date time.Time) ([]Kind, error) {
	var names []string
	for _, model := range []any{&models.Purchase{}, &models.StockCount{}} {
		var part []string
		err := s.db.WithContext(ctx).Model(model).
			Where("business_date = ? AND item_kind LIKE ?", day(date), drinkPrefix+"%").
			Distinct().Pluck("item_kind", &part).Error
		if err != nil {
			return nil, err
		}
		names = append(names, part...)
	}
	out := make([]Kind, 0, len(names))
	for _, n := range names {
		out = append(out, Kind(n))
	}
	return out, nil
}

// ProjectedReceipts runs the usage projection over the POS receipts of a
// business date.
type ProjectedReceipts struct {
	Items    usage.ItemSource
	Provider usage.Provider
	Location *time.Location
}

func (r ProjectedReceipts) UsageTotals(ctx context.Context, date time.Time) (usage.Totals, error) {
	p, err := usage.ProjectDate(ctx, r.Items, r.Provider, date, r.Location)
	if err != nil {
		return usage.Totals{}, err
	}
	return p.Totals, nil
}

// Package forms keeps the daily sales & stock form and the manager review.
package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/shiftwindow"
	"shiftcost-backend/internal/tally"

	"gorm.io/gorm"
)

// DrinkCount is one drink line of the form.
type DrinkCount struct {
	Brand   string   `json:"brand"`
	Sold    *float64 `json:"sold"`
	Closing *float64 `json:"closing"`
}

// Form is a shift form with its drink counts.
type Form struct {
	models.ShiftForm
	Drinks []DrinkCount `json:"drinks"`
}

type count struct {
	kind    ledger.Kind
	sold    *float64
	closing *float64
}

// counts lists the stock counts the form carries: rolls and meat when
// their end count is filled in, then every drink.
func (f Form) counts() []count {
	var out []count
	if f.RollsEnd != nil {
		out = append(out, count{kind: ledger.KindRolls, closing: f.RollsEnd})
	}
	if f.MeatEndGrams != nil {
		out = append(out, count{kind: ledger.KindMeat, closing: f.MeatEndGrams})
	}
	for _, d := range f.Drinks {
		out = append(out, count{kind: ledger.DrinkKind(d.Brand), sold: d.Sold, closing: d.Closing})
	}
	return out
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the form of date with the drink counts taken that night.
func (s *Store) Get(ctx context.Context, date time.Time) (Form, bool, error) {
	db := s.db.WithContext(ctx)
	var f models.ShiftForm
	err := db.Where("business_date = ?", date).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Form{}, false, nil
	}
	if err != nil {
		return Form{}, false, err
	}
	var counts []models.StockCount
	if err := db.Where("business_date = ? AND item_kind LIKE ?", date, "drink:%").Order("item_kind").Find(&counts).Error; err != nil {
		return Form{}, false, err
	}
	out := Form{ShiftForm: f, Drinks: make([]DrinkCount, 0, len(counts))}
	for _, c := range counts {
		kind := ledger.Kind(c.ItemKind)
		out.Drinks = append(out.Drinks, DrinkCount{Brand: kind.Brand(), Sold: c.Sold, Closing: c.Closing})
	}
	return out, true, nil
}

// Save upserts the form and its drink counts in one transaction, with an
// audit entry for the form and for every count.
func (s *Store) Save(ctx context.Context, actor auth.Actor, f Form) (Form, error) {
	f.ShiftTotals = reconcile.DeriveBanking(f.ShiftTotals)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before models.ShiftForm
		err := tx.Where("business_date = ?", f.BusinessDate).First(&before).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row := f.ShiftForm
		action := models.AuditActionCreate
		var beforeSnap any
		if exists {
			row.ID = before.ID
			row.CreatedAt = before.CreatedAt
			action = models.AuditActionUpdate
			beforeSnap = before
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("save form: %w", err)
		}
		f.ShiftForm = row
		if err := audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityShiftForm,
			EntityID:    row.ID,
			Action:      action,
			Description: "Shift form " + row.BusinessDate.Format(shiftwindow.DateLayout),
			Before:      beforeSnap,
			After:       row,
		}); err != nil {
			return err
		}

		for _, c := range f.counts() {
			if _, err := tally.SaveCount(tx, actor, f.BusinessDate, c.kind, c.sold, c.closing, "shift form"); err != nil {
				return err
			}
		}
		return nil
	})
	return f, err
}

// SaveReview upserts the manager review of date.
func (s *Store) SaveReview(ctx context.Context, actor auth.Actor, r models.ManagerReview) (models.ManagerReview, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before models.ManagerReview
		err := tx.Where("business_date = ?", r.BusinessDate).First(&before).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		r.ReviewedBy = actor.ID
		action := models.AuditActionCreate
		var beforeSnap any
		if exists {
			r.ID = before.ID
			r.CreatedAt = before.CreatedAt
			action = models.AuditActionUpdate
			beforeSnap = before
		}
		if err := tx.Save(&r).Error; err != nil {
			return fmt.Errorf("save review: %w", err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityReview,
			EntityID:    r.ID,
			Action:      action,
			Description: "Manager review " + r.BusinessDate.Format(shiftwindow.DateLayout),
			Before:      beforeSnap,
			After:       r,
		})
	})
	return r, err
}

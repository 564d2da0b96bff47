// Package tally records the purchase tally and the stock counts taken at
// close, the raw inputs of the consumable ledger.
package tally

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AddPurchase stores one tally line with its audit entry.
func (s *Store) AddPurchase(ctx context.Context, actor auth.Actor, p models.Purchase) (models.Purchase, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("save purchase: %w", err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityPurchase,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase %s %s: %g", p.BusinessDate.Format(shiftwindow.DateLayout), p.ItemKind, p.Quantity),
			After:       p,
		})
	})
	return p, err
}

// Purchases lists the tally of date in entry order.
func (s *Store) Purchases(ctx context.Context, date time.Time) ([]models.Purchase, error) {
	var out []models.Purchase
	err := s.db.WithContext(ctx).
		Where("business_date = ?", date).
		Order("item_kind, id").
		Find(&out).Error
	return out, err
}

// SaveCount upserts the stock count of (date, kind) inside tx and audits
// it. Nil fields keep what an earlier count stored.
func SaveCount(tx *gorm.DB, actor auth.Actor, date time.Time, kind ledger.Kind, sold, closing *float64, note string) (models.StockCount, error) {
	var before models.StockCount
	err := tx.Where("business_date = ? AND item_kind = ?", date, string(kind)).First(&before).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StockCount{}, err
	}

	row := models.StockCount{BusinessDate: date, ItemKind: string(kind), Sold: sold, Closing: closing, Note: note}
	action := models.AuditActionCreate
	var beforeSnap any
	if exists {
		row.ID = before.ID
		row.CreatedAt = before.CreatedAt
		if row.Sold == nil {
			row.Sold = before.Sold
		}
		if row.Closing == nil {
			row.Closing = before.Closing
		}
		if row.Note == "" {
			row.Note = before.Note
		}
		action = models.AuditActionUpdate
		beforeSnap = before
	}
	if err := tx.Save(&row).Error; err != nil {
		return models.StockCount{}, fmt.Errorf("save %s count: %w", kind, err)
	}
	err = audit.WriteLog(tx, audit.LogOptions{
		UserID:      actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityStockCount,
		EntityID:    row.ID,
		Action:      action,
		Description: fmt.Sprintf("Stock count %s %s", date.Format(shiftwindow.DateLayout), kind),
		Before:      beforeSnap,
		After:       row,
	})
	return row, err
}

func (s *Store) SaveCount(ctx context.Context, actor auth.Actor, date time.Time, kind ledger.Kind, sold, closing *float64, note string) (models.StockCount, error) {
	var row models.StockCount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = SaveCount(tx, actor, date, kind, sold, closing, note)
		return err
	})
	return row, err
}

// Count returns the stock count of (date, kind), if any.
func (s *Store) Count(ctx context.Context, date time.Time, kind ledger.Kind) (models.StockCount, bool, error) {
	var c models.StockCount
	err := s.db.WithContext(ctx).Where("business_date = ? AND item_kind = ?", date, string(kind)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StockCount{}, false, nil
	}
	return c, err == nil, err
}

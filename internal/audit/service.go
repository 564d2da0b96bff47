package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"shiftcost-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntityPurchase    = "purchase"
	EntityStockCount  = "stock_count"
	EntityLedgerEntry = "ledger_entry"
	EntityIngredient  = "ingredient"
	EntityRecipe      = "recipe"
	EntityShiftForm   = "shift_form"
	EntityReview      = "manager_review"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// WriteLog records one change. Pass the transaction the change was made in
// so the log and the change commit together.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}

// Touched names the ledger cell an undone change belonged to, so the
// caller can refresh it.
type Touched struct {
	BusinessDate time.Time
	ItemKind     string
}

// UndoLog reverts a create (by deleting the row) or an update (by
// restoring the before snapshot). Only purchases and stock counts can be
// undone. The returned cells are every ledger cell the row sat in before
// and after the undo.
func UndoLog(db *gorm.DB, logID uint, userID uint, userName string) ([]Touched, error) {
	var touched []Touched
	err := db.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log not found: %w", err)
		}
		if log.IsUndone {
			return fmt.Errorf("this change was already undone")
		}

		switch log.Action {
		case models.AuditActionCreate:
			t, err := deleteEntity(tx, log.EntityType, log.EntityID, log.AfterData)
			if err != nil {
				return err
			}
			touched = []Touched{t}
		case models.AuditActionUpdate:
			t, err := restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData)
			if err != nil {
				return err
			}
			touched = []Touched{t}
			if moved, ok := cellOf(log.AfterData); ok && moved != t {
				touched = append(touched, moved)
			}
		default:
			return fmt.Errorf("%s entries cannot be undone", log.Action)
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneBy = &userID
		log.UndoneAt = &now
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("log could not be updated: %w", err)
		}

		return WriteLog(tx, LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Undone: " + log.Description,
			Before:      json.RawMessage(log.AfterData),
			After:       json.RawMessage(log.BeforeData),
		})
	})
	return touched, err
}

// cellOf reads the ledger cell out of a purchase or stock count snapshot.
func cellOf(snapshot string) (Touched, bool) {
	var cell struct {
		BusinessDate time.Time `json:"business_date"`
		ItemKind     string    `json:"item_kind"`
	}
	if err := json.Unmarshal([]byte(snapshot), &cell); err != nil || cell.ItemKind == "" {
		return Touched{}, false
	}
	return Touched{BusinessDate: cell.BusinessDate, ItemKind: cell.ItemKind}, true
}

func deleteEntity(tx *gorm.DB, entityType string, id uint, after string) (Touched, error) {
	switch entityType {
	case EntityPurchase:
		var p models.Purchase
		if err := json.Unmarshal([]byte(after), &p); err != nil {
			return Touched{}, err
		}
		if err := tx.Delete(&models.Purchase{}, "id = ?", id).Error; err != nil {
			return Touched{}, fmt.Errorf("purchase could not be deleted: %w", err)
		}
		return Touched{BusinessDate: p.BusinessDate, ItemKind: p.ItemKind}, nil
	case EntityStockCount:
		var s models.StockCount
		if err := json.Unmarshal([]byte(after), &s); err != nil {
			return Touched{}, err
		}
		if err := tx.Delete(&models.StockCount{}, "id = ?", id).Error; err != nil {
			return Touched{}, fmt.Errorf("stock count could not be deleted: %w", err)
		}
		return Touched{BusinessDate: s.BusinessDate, ItemKind: s.ItemKind}, nil
	default:
		return Touched{}, fmt.Errorf("%s changes cannot be undone", entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType string, id uint, before string) (Touched, error) {
	switch entityType {
	case EntityPurchase:
		var p models.Purchase
		if err := json.Unmarshal([]byte(before), &p); err != nil {
			return Touched{}, err
		}
		err := tx.Model(&models.Purchase{}).Where("id = ?", id).Updates(map[string]interface{}{
			"business_date": p.BusinessDate,
			"item_kind":     p.ItemKind,
			"quantity":      p.Quantity,
			"supplier":      p.Supplier,
			"amount_thb":    p.AmountTHB,
			"staff":         p.Staff,
			"note":          p.Note,
		}).Error
		return Touched{BusinessDate: p.BusinessDate, ItemKind: p.ItemKind}, err
	case EntityStockCount:
		var s models.StockCount
		if err := json.Unmarshal([]byte(before), &s); err != nil {
			return Touched{}, err
		}
		err := tx.Model(&models.StockCount{}).Where("id = ?", id).Updates(map[string]interface{}{
			"sold":    s.Sold,
			"closing": s.Closing,
			"note":    s.Note,
		}).Error
		return Touched{BusinessDate: s.BusinessDate, ItemKind: s.ItemKind}, err
	default:
		return Touched{}, fmt.Errorf("%s changes cannot be undone", entityType)
	}
}

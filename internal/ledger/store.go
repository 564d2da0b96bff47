package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiftcost-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps entries in the ledger_entries table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func toModel(e Entry) models.LedgerEntry {
	return models.LedgerEntry{
		BusinessDate: e.BusinessDate,
		ItemKind:     string(e.Kind),
		Opening:      e.Opening,
		Purchased:    e.Purchased,
		Sold:         e.Sold,
		Actual:       e.Actual,
		Status:       models.LedgerStatus(e.Status),
	}
}

func fromModel(m models.LedgerEntry) Entry {
	return Entry{
		BusinessDate: day(m.BusinessDate.UTC()),
		Kind:         Kind(m.ItemKind),
		Opening:      m.Opening,
		Purchased:    m.Purchased,
		Sold:         m.Sold,
		Actual:       m.Actual,
		Status:       Status(m.Status),
	}
}

func (s *GormStore) Get(ctx context.Context, date time.Time, kind Kind) (Entry, bool, error) {
	var m models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("business_date = ? AND item_kind = ?", day(date), string(kind)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return fromModel(m), true, nil
}

// storedStatus derives status in SQL from the row's stored actual, the
// same way Entry.derivedStatus does.
func storedStatus(expected string) clause.Expr {
	return gorm.Expr("CASE WHEN ledger_entries.actual IS NULL THEN ? WHEN ABS(ledger_entries.actual - ("+expected+")) < ? THEN ? ELSE ? END",
		string(StatusPending), zeroVariance, string(StatusOK), string(StatusAlert))
}

// SaveCounts upserts on the (business_date, item_kind) unique index in one
// statement. The actual column is only ever set on insert, where it is
// empty.
func (s *GormStore) SaveCounts(ctx context.Context, e Entry) (Entry, error) {
	m := toModel(e)
	m.BusinessDate = day(m.BusinessDate)
	m.Actual = nil
	m.Status = models.LedgerStatusPending

	set := clause.AssignmentColumns([]string{"opening", "purchased", "sold", "updated_at"})
	set = append(set, clause.Assignment{
		Column: clause.Column{Name: "status"},
		Value:  storedStatus("excluded.opening + excluded.purchased - excluded.sold"),
	})
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_date"}, {Name: "item_kind"}},
		DoUpdates: set,
	}).Create(&m).Error
	if err != nil {
		return Entry{}, err
	}
	got, _, err := s.Get(ctx, e.BusinessDate, e.Kind)
	return got, err
}

func (s *GormStore) SetActual(ctx context.Context, date time.Time, kind Kind, actual *float64) (Entry, bool, error) {
	updates := map[string]any{
		"actual":     gorm.Expr("NULL"),
		"status":     string(StatusPending),
		"updated_at": time.Now(),
	}
	if actual != nil {
		updates["actual"] = *actual
		updates["status"] = gorm.Expr("CASE WHEN ABS(? - (opening + purchased - sold)) < ? THEN ? ELSE ? END",
			*actual, zeroVariance, string(StatusOK), string(StatusAlert))
	}
	res := s.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("business_date = ? AND item_kind = ?", day(date), string(kind)).
		Updates(updates)
	if res.Error != nil {
		return Entry{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return Entry{}, false, nil
	}
	return s.Get(ctx, date, kind)
}

func (s *GormStore) History(ctx context.Context, kind Kind, limit int) ([]Entry, error) {
	var rows []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("item_kind = ?", string(kind)).
		Order("business_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ledger history: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromModel(r))
	}
	return out, nil
}

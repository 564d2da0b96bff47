package usage

import (
	"context"
	"fmt"

	"shiftcost-backend/internal/models"

	"gorm.io/gorm"
)

// Provider supplies the catalogue in effect for a request.
type Provider interface {
	Catalogue(ctx context.Context) (*Catalogue, error)
}

type StaticProvider struct {
	C *Catalogue
}

func (p StaticProvider) Catalogue(context.Context) (*Catalogue, error) {
	return p.C, nil
}

// GormProvider reads the product_mappings table and falls back to the
// given catalogue while the table is empty.
type GormProvider struct {
	db       *gorm.DB
	fallback *Catalogue
}

func NewGormProvider(db *gorm.DB, fallback *Catalogue) *GormProvider {
	return &GormProvider{db: db, fallback: fallback}
}

func (p *GormProvider) Catalogue(ctx context.Context) (*Catalogue, error) {
	var rows []models.ProductMapping
	if err := p.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load product mappings: %w", err)
	}
	if len(rows) == 0 {
		return p.fallback, nil
	}
	mappings := make([]Mapping, 0, len(rows))
	for _, r := range rows {
		mappings = append(mappings, Mapping{
			Name:                r.Name,
			PattiesPerUnit:      r.PattiesPerUnit,
			RedMeatGramsPerUnit: r.RedMeatGramsPerUnit,
			ChickenGramsPerUnit: r.ChickenGramsPerUnit,
			RollsPerUnit:        r.RollsPerUnit,
		})
	}
	return NewCatalogue(mappings)
}

// Replace swaps the whole mapping table in one transaction. The mappings
// are validated as a catalogue first so a bad upload changes nothing.
func (p *GormProvider) Replace(ctx context.Context, mappings []Mapping) error {
	if _, err := NewCatalogue(mappings); err != nil {
		return err
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProductMapping{}).Error; err != nil {
			return err
		}
		if len(mappings) == 0 {
			return nil
		}
		rows := make([]models.ProductMapping, 0, len(mappings))
		for _, m := range mappings {
			rows = append(rows, models.ProductMapping{
				Name:                m.Name,
				PattiesPerUnit:      m.PattiesPerUnit,
				RedMeatGramsPerUnit: m.RedMeatGramsPerUnit,
				ChickenGramsPerUnit: m.ChickenGramsPerUnit,
				RollsPerUnit:        m.RollsPerUnit,
			})
		}
		return tx.Create(&rows).Error
	})
}

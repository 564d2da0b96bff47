package models

import "time"

// ProductMapping maps a POS item name to its consumable usage per unit sold.
type ProductMapping struct {
	ID                  uint    `gorm:"primaryKey"`
	Name                string  `gorm:"size:255;not null;unique"`
	PattiesPerUnit      float64 `gorm:"not null;default:0"`
	RedMeatGramsPerUnit float64 `gorm:"not null;default:0"`
	ChickenGramsPerUnit float64 `gorm:"not null;default:0"`
	RollsPerUnit        float64 `gorm:"not null;default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

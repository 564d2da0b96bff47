package models

import "time"

type Ingredient struct {
	ID              uint     `gorm:"primaryKey"`
	Name            string   `gorm:"size:100;not null;unique"`
	Supplier        string   `gorm:"size:100"`
	PackageSize     string   `gorm:"size:100"`           // free text, e.g. "10kg", "6 Cans"
	PackageUnit     string   `gorm:"size:20"`            // used when the text carries no unit
	PackageCost     float64  `gorm:"not null;default:0"` // THB per package
	PortionQuantity *float64 // standard menu portion, optional
	PortionUnit     string   `gorm:"size:20"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Recipe struct {
	ID           uint    `gorm:"primaryKey"`
	Name         string  `gorm:"size:100;not null;unique"`
	Servings     int     `gorm:"not null;default:1"`
	WastePercent float64 `gorm:"not null;default:0"`
	MenuPrice    float64 `gorm:"not null;default:0"`
	Lines        []RecipeLine
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RecipeLine struct {
	ID           uint    `gorm:"primaryKey"`
	RecipeID     uint    `gorm:"index;not null"`
	IngredientID uint    `gorm:"index;not null"`
	Quantity     float64 `gorm:"not null"`
	Unit         string  `gorm:"size:20;not null"`
	Position     int     `gorm:"not null;default:0"`
}

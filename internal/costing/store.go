package costing

import (
	"context"
	"errors"
	"fmt"

	"shiftcost-backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// Store reads ingredients and recipes from the database.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func ingredientFromModel(m models.Ingredient) Ingredient {
	return Ingredient{
		ID:              m.ID,
		Name:            m.Name,
		Supplier:        m.Supplier,
		PackageSize:     m.PackageSize,
		PackageUnit:     m.PackageUnit,
		PackageCost:     m.PackageCost,
		PortionQuantity: m.PortionQuantity,
		PortionUnit:     m.PortionUnit,
	}
}

func recipeFromModel(m models.Recipe) Recipe {
	r := Recipe{
		ID:           m.ID,
		Name:         m.Name,
		Servings:     m.Servings,
		WastePercent: m.WastePercent,
		MenuPrice:    m.MenuPrice,
		Lines:        make([]Line, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		r.Lines = append(r.Lines, Line{IngredientID: l.IngredientID, Quantity: l.Quantity, Unit: l.Unit})
	}
	return r
}

func (s *Store) Ingredients(ctx context.Context) ([]Ingredient, error) {
	var rows []models.Ingredient
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	out := make([]Ingredient, 0, len(rows))
	for _, r := range rows {
		out = append(out, ingredientFromModel(r))
	}
	return out, nil
}

// IngredientsByID loads the ingredients a set of recipes refers to.
func (s *Store) IngredientsByID(ctx context.Context, recipes ...Recipe) (map[uint]Ingredient, error) {
	var ids []uint
	for _, r := range recipes {
		for _, l := range r.Lines {
			ids = append(ids, l.IngredientID)
		}
	}
	out := make(map[uint]Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Ingredient
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = ingredientFromModel(r)
	}
	return out, nil
}

func (s *Store) Recipe(ctx context.Context, id uint) (Recipe, error) {
	var m models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Recipe{}, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Recipe{}, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return recipeFromModel(m), nil
}

func (s *Store) Recipes(ctx context.Context) ([]Recipe, error) {
	var rows []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Order("name").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	out := make([]Recipe, 0, len(rows))
	for _, r := range rows {
		out = append(out, recipeFromModel(r))
	}
	return out, nil
}

// CostRecipe loads a recipe and its ingredients and prices it.
func (s *Store) CostRecipe(ctx context.Context, id uint) (Costing, error) {
	r, err := s.Recipe(ctx, id)
	if err != nil {
		return Costing{}, err
	}
	ings, err := s.IngredientsByID(ctx, r)
	if err != nil {
		return Costing{}, err
	}
	return Cost(r, ings), nil
}

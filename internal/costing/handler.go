package costing

import (
	"errors"
	"fmt"
	"strings"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IngredientRequest struct {
	Name            string   `json:"name"`
	Supplier        string   `json:"supplier"`
	PackageSize     string   `json:"package_size"`
	PackageUnit     string   `json:"package_unit"`
	PackageCost     float64  `json:"package_cost"`
	PortionQuantity *float64 `json:"portion_quantity"`
	PortionUnit     string   `json:"portion_unit"`
}

type IngredientResponse struct {
	Ingredient
	Package     *PackageSize `json:"package,omitempty"`
	UnitCost    *float64     `json:"unit_cost,omitempty"`
	BaseUnit    string       `json:"base_unit,omitempty"`
	PortionCost *float64     `json:"portion_cost,omitempty"`
	Flag        Flag         `json:"flag,omitempty"`
}

func describeIngredient(i Ingredient) IngredientResponse {
	res := IngredientResponse{Ingredient: i}
	p, err := i.Package()
	if err != nil {
		res.Flag = FlagOf(err)
		return res
	}
	res.Package = &p
	uc, base, _ := i.UnitCost()
	res.UnitCost = &uc
	res.BaseUnit = base.Name
	if pc, err := i.PortionCost(); err == nil {
		res.PortionCost = &pc
	}
	return res
}

func (b IngredientRequest) validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Ingredient name is required")
	}
	if b.PackageCost < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Package cost cannot be negative")
	}
	if b.PackageUnit != "" {
		if _, err := LookupUnit(b.PackageUnit); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if b.PortionQuantity != nil && *b.PortionQuantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Portion quantity must be positive")
	}
	return nil
}

func (b IngredientRequest) apply(m *models.Ingredient) {
	m.Name = strings.TrimSpace(b.Name)
	m.Supplier = strings.TrimSpace(b.Supplier)
	m.PackageSize = strings.TrimSpace(b.PackageSize)
	m.PackageUnit = strings.TrimSpace(b.PackageUnit)
	m.PackageCost = b.PackageCost
	m.PortionQuantity = b.PortionQuantity
	m.PortionUnit = strings.TrimSpace(b.PortionUnit)
}

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}

// GET /api/ingredients
func ListIngredientsHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ings, err := s.Ingredients(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ingredients could not be listed")
		}
		res := make([]IngredientResponse, 0, len(ings))
		for _, i := range ings {
			res = append(res, describeIngredient(i))
		}
		return c.JSON(res)
	}
}

// POST /api/ingredients
func CreateIngredientHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body IngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		var m models.Ingredient
		body.apply(&m)
		err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&m).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Ingredient could not be created (duplicate name?)")
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityIngredient,
				EntityID:    m.ID,
				Action:      models.AuditActionCreate,
				Description: "Ingredient created: " + m.Name,
				After:       m,
			})
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(describeIngredient(ingredientFromModel(m)))
	}
}

// PUT /api/ingredients/:id
func UpdateIngredientHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body IngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		var m models.Ingredient
		err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&m, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Ingredient not found")
			}
			before := m
			body.apply(&m)
			if err := tx.Save(&m).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Ingredient could not be updated")
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityIngredient,
				EntityID:    m.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ingredient updated: " + m.Name,
				Before:      before,
				After:       m,
			})
		})
		if err != nil {
			return err
		}
		return c.JSON(describeIngredient(ingredientFromModel(m)))
	}
}

type RecipeRequest struct {
	Name         string  `json:"name"`
	Servings     int     `json:"servings"`
	WastePercent float64 `json:"waste_percent"`
	MenuPrice    float64 `json:"menu_price"`
	Lines        []Line  `json:"lines"`
}

func (b *RecipeRequest) validate() error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Recipe name is required")
	}
	if b.Servings == 0 {
		b.Servings = 1
	}
	if b.Servings < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Servings cannot be negative")
	}
	if b.WastePercent < 0 || b.WastePercent >= 100 {
		return fiber.NewError(fiber.StatusBadRequest, "Waste percent must be in [0, 100)")
	}
	if b.MenuPrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Menu price cannot be negative")
	}
	for i, l := range b.Lines {
		if l.IngredientID == 0 || l.Quantity <= 0 || strings.TrimSpace(l.Unit) == "" {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Line %d needs an ingredient, a positive quantity and a unit", i+1))
		}
	}
	return nil
}

func (b RecipeRequest) lines(recipeID uint) []models.RecipeLine {
	out := make([]models.RecipeLine, 0, len(b.Lines))
	for i, l := range b.Lines {
		out = append(out, models.RecipeLine{
			RecipeID:     recipeID,
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			Unit:         strings.TrimSpace(l.Unit),
			Position:     i,
		})
	}
	return out
}

func costingResponse(c *fiber.Ctx, s *Store, id uint, status int) error {
	out, err := s.CostRecipe(c.UserContext(), id)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Recipe could not be costed")
	}
	return c.Status(status).JSON(out)
}

// GET /api/recipes
func ListRecipesHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recipes, err := s.Recipes(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Recipes could not be listed")
		}
		ings, err := s.IngredientsByID(c.UserContext(), recipes...)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ingredients could not be loaded")
		}
		res := make([]Costing, 0, len(recipes))
		for _, r := range recipes {
			res = append(res, Cost(r, ings))
		}
		return c.JSON(res)
	}
}

// GET /api/recipes/:id/cost
func RecipeCostHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		return costingResponse(c, s, id, fiber.StatusOK)
	}
}

// POST /api/recipes
func CreateRecipeHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body RecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		m := models.Recipe{
			Name:         body.Name,
			Servings:     body.Servings,
			WastePercent: body.WastePercent,
			MenuPrice:    body.MenuPrice,
		}
		err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&m).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Recipe could not be created (duplicate name?)")
			}
			if lines := body.lines(m.ID); len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return err
				}
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityRecipe,
				EntityID:    m.ID,
				Action:      models.AuditActionCreate,
				Description: "Recipe created: " + m.Name,
				After:       body,
			})
		})
		if err != nil {
			return err
		}
		return costingResponse(c, s, m.ID, fiber.StatusCreated)
	}
}

// PUT /api/recipes/:id replaces the recipe and all of its lines.
func UpdateRecipeHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body RecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		before, err := s.Recipe(c.UserContext(), id)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Recipe not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Recipe could not be loaded")
		}

		err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
				"name":          body.Name,
				"servings":      body.Servings,
				"waste_percent": body.WastePercent,
				"menu_price":    body.MenuPrice,
			}).Error
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Recipe could not be updated")
			}
			if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeLine{}).Error; err != nil {
				return err
			}
			if lines := body.lines(id); len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return err
				}
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityRecipe,
				EntityID:    id,
				Action:      models.AuditActionUpdate,
				Description: "Recipe updated: " + body.Name,
				Before:      before,
				After:       body,
			})
		})
		if err != nil {
			return err
		}
		return costingResponse(c, s, id, fiber.StatusOK)
	}
}

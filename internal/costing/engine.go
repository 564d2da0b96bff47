// Package costing prices recipes from ingredient package data.
package costing

import (
	"errors"
	"fmt"
	"math"
)

type Ingredient struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	Supplier        string   `json:"supplier"`
	PackageSize     string   `json:"package_size"`
	PackageUnit     string   `json:"package_unit"`
	PackageCost     float64  `json:"package_cost"`
	PortionQuantity *float64 `json:"portion_quantity,omitempty"`
	PortionUnit     string   `json:"portion_unit,omitempty"`
}

// Package parses the package size and checks the package has a cost.
func (i Ingredient) Package() (PackageSize, error) {
	p, err := ParsePackageSize(i.PackageSize, i.PackageUnit)
	if err != nil {
		return PackageSize{}, err
	}
	if i.PackageCost <= 0 {
		return PackageSize{}, fmt.Errorf("%w: %s has no package cost", ErrMissingPackageData, i.Name)
	}
	return p, nil
}

// UnitCost is the cost of one base unit (g, ml or each).
func (i Ingredient) UnitCost() (float64, Unit, error) {
	p, err := i.Package()
	if err != nil {
		return 0, Unit{}, err
	}
	base := Unit{Name: baseName(p.Unit.Dim), Dim: p.Unit.Dim, ToBase: 1}
	return i.PackageCost / p.Base(), base, nil
}

// PortionCost is the cost of the ingredient's standard menu portion,
// before waste.
func (i Ingredient) PortionCost() (float64, error) {
	if i.PortionQuantity == nil {
		return 0, fmt.Errorf("%s has no standard portion", i.Name)
	}
	unit := i.PortionUnit
	if unit == "" {
		unit = i.PackageUnit
	}
	return RawLineCost(*i.PortionQuantity, unit, i)
}

func baseName(d Dimension) string {
	switch d {
	case Mass:
		return "g"
	case Volume:
		return "ml"
	default:
		return "each"
	}
}

// RawLineCost prices quantity q of unit in i's package, before waste.
func RawLineCost(q float64, unit string, i Ingredient) (float64, error) {
	p, err := i.Package()
	if err != nil {
		return 0, err
	}
	u, err := LookupUnit(unit)
	if err != nil {
		return 0, err
	}
	if u.Dim != p.Unit.Dim {
		return 0, fmt.Errorf("%w: %s is sold by %s, line is in %s", ErrInvalidUnitConversion, i.Name, p.Unit.Dim, u.Dim)
	}
	return q * u.ToBase / p.Base() * i.PackageCost, nil
}

// YieldEfficiency is the usable share of the purchased quantity, floored
// at 1%.
func YieldEfficiency(wastePercent float64) float64 {
	return math.Max(0.01, (100-wastePercent)/100)
}

// AdjustForWaste applies waste as a surcharge and as the yield divisor.
// Prices already charged depend on both being applied.
func AdjustForWaste(raw, wastePercent float64) float64 {
	return raw * (1 + wastePercent/100) / YieldEfficiency(wastePercent)
}

type Line struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

type Recipe struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Servings     int     `json:"servings"`
	WastePercent float64 `json:"waste_percent"`
	MenuPrice    float64 `json:"menu_price"`
	Lines        []Line  `json:"lines"`
}

type Flag string

const (
	FlagInvalidUnitConversion Flag = "invalid_unit_conversion"
	FlagMissingPackageData    Flag = "missing_package_data"
	FlagUnknownUnit           Flag = "unknown_unit"
	FlagUnknownIngredient     Flag = "unknown_ingredient"
)

// FlagOf maps a line error to its flag.
func FlagOf(err error) Flag {
	switch {
	case errors.Is(err, ErrInvalidUnitConversion):
		return FlagInvalidUnitConversion
	case errors.Is(err, ErrUnknownUnit):
		return FlagUnknownUnit
	case errors.Is(err, ErrUnknownIngredient):
		return FlagUnknownIngredient
	default:
		return FlagMissingPackageData
	}
}

type LineCost struct {
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	RawCost        float64 `json:"raw_cost"`
	Cost           float64 `json:"cost"`
	Flag           Flag    `json:"flag,omitempty"`
	Detail         string  `json:"detail,omitempty"`
}

type Costing struct {
	RecipeID        uint       `json:"recipe_id"`
	Name            string     `json:"name"`
	Servings        int        `json:"servings"`
	WastePercent    float64    `json:"waste_percent"`
	MenuPrice       float64    `json:"menu_price"`
	Lines           []LineCost `json:"lines"`
	TotalCost       float64    `json:"total_cost"`
	CostPerServing  float64    `json:"cost_per_serving"`
	FoodCostPercent float64    `json:"food_cost_percent"`
	MarginPercent   float64    `json:"margin_percent"`
	FlaggedLines    int        `json:"flagged_lines"`
}

// Cost prices every line of r and derives the recipe totals. A line that
// cannot be priced costs 0 and carries a flag; the rest still count.
func Cost(r Recipe, ingredients map[uint]Ingredient) Costing {
	out := Costing{
		RecipeID:     r.ID,
		Name:         r.Name,
		Servings:     r.Servings,
		WastePercent: r.WastePercent,
		MenuPrice:    r.MenuPrice,
		Lines:        make([]LineCost, 0, len(r.Lines)),
	}

	for _, l := range r.Lines {
		lc := LineCost{IngredientID: l.IngredientID, Quantity: l.Quantity, Unit: l.Unit}
		ing, ok := ingredients[l.IngredientID]
		var err error
		if !ok {
			err = fmt.Errorf("%w: id %d", ErrUnknownIngredient, l.IngredientID)
		} else {
			lc.IngredientName = ing.Name
			lc.RawCost, err = RawLineCost(l.Quantity, l.Unit, ing)
		}
		if err != nil {
			lc.RawCost = 0
			lc.Flag = FlagOf(err)
			lc.Detail = err.Error()
			out.FlaggedLines++
		} else {
			lc.Cost = AdjustForWaste(lc.RawCost, r.WastePercent)
		}
		out.TotalCost += lc.Cost
		out.Lines = append(out.Lines, lc)
	}

	out.CostPerServing = out.TotalCost / float64(max(1, r.Servings))
	if r.MenuPrice > 0 {
		out.FoodCostPercent = out.CostPerServing / r.MenuPrice * 100
		out.MarginPercent = (r.MenuPrice - out.CostPerServing) / r.MenuPrice * 100
	}
	return out
}

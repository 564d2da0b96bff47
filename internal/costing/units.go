package costing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidUnitConversion = errors.New("invalid unit conversion")
	ErrMissingPackageData    = errors.New("missing package data")
	ErrUnknownUnit           = errors.New("unknown unit")
	ErrUnknownIngredient     = errors.New("unknown ingredient")
)

type Dimension string

const (
	Mass   Dimension = "mass"
	Volume Dimension = "volume"
	Count  Dimension = "count"
)

// Unit converts to its dimension's base unit (g, ml, each) by ToBase.
type Unit struct {
	Name   string    `json:"name"`
	Dim    Dimension `json:"dimension"`
	ToBase float64   `json:"to_base"`
}

var (
	gram  = Unit{"g", Mass, 1}
	milli = Unit{"ml", Volume, 1}
	each  = Unit{"each", Count, 1}
)

var unitTable = map[string]Unit{
	"g": gram, "gr": gram, "gram": gram, "grams": gram, "gm": gram,
	"kg": {"kg", Mass, 1000}, "kgs": {"kg", Mass, 1000}, "kilo": {"kg", Mass, 1000},
	"kilogram": {"kg", Mass, 1000}, "kilograms": {"kg", Mass, 1000},
	"oz": {"oz", Mass, 28.35}, "ounce": {"oz", Mass, 28.35}, "ounces": {"oz", Mass, 28.35},
	"lb": {"lb", Mass, 453.6}, "lbs": {"lb", Mass, 453.6}, "pound": {"lb", Mass, 453.6}, "pounds": {"lb", Mass, 453.6},

	"ml": milli, "millilitre": milli, "milliliter": milli, "millilitres": milli, "milliliters": milli,
	"l": {"l", Volume, 1000}, "ltr": {"l", Volume, 1000}, "litre": {"l", Volume, 1000}, "liter": {"l", Volume, 1000},
	"litres": {"l", Volume, 1000}, "liters": {"l", Volume, 1000},
	"cup": {"cup", Volume, 240}, "cups": {"cup", Volume, 240},
	"tbsp": {"tbsp", Volume, 15}, "tablespoon": {"tbsp", Volume, 15}, "tablespoons": {"tbsp", Volume, 15},
	"tsp": {"tsp", Volume, 5}, "teaspoon": {"tsp", Volume, 5}, "teaspoons": {"tsp", Volume, 5},

	"each": each, "ea": each, "pc": each, "pcs": each, "piece": each, "pieces": each,
	"unit": each, "units": each, "can": each, "cans": each, "box": each, "boxes": each,
	"bottle": each, "bottles": each, "pack": each, "packs": each, "bag": each, "bags": each,
}

// LookupUnit resolves a unit or container word, case-insensitively.
func LookupUnit(name string) (Unit, error) {
	u, ok := unitTable[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return u, nil
}

// Convert expresses q of unit from in unit to. Both units must share a
// dimension.
func Convert(q float64, from, to string) (float64, error) {
	f, err := LookupUnit(from)
	if err != nil {
		return 0, err
	}
	t, err := LookupUnit(to)
	if err != nil {
		return 0, err
	}
	if f.Dim != t.Dim {
		return 0, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrInvalidUnitConversion, from, f.Dim, to, t.Dim)
	}
	return q * f.ToBase / t.ToBase, nil
}

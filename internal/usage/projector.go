package usage

import (
	"context"
	"sort"
	"strings"
	"time"

	"shiftcost-backend/internal/shiftwindow"
)

// LineItem is one POS receipt line.
type LineItem struct {
	Name      string
	Quantity  float64
	ReceiptAt time.Time
}

// ItemSource fetches the receipt lines sold inside a window.
type ItemSource interface {
	LineItems(ctx context.Context, w shiftwindow.Window) ([]LineItem, error)
}

type ProductUsage struct {
	Name           string   `json:"name"`
	NormalizedName string   `json:"normalized_name"`
	RawNames       []string `json:"raw_names"`
	Quantity       float64  `json:"qty"`
	Patties        float64  `json:"patties"`
	RedMeatGrams   float64  `json:"red_meat_grams"`
	ChickenGrams   float64  `json:"chicken_grams"`
	Rolls          float64  `json:"rolls"`
}

type Totals struct {
	Burgers      float64 `json:"burgers"`
	Patties      float64 `json:"patties"`
	RedMeatGrams float64 `json:"red_meat_grams"`
	ChickenGrams float64 `json:"chicken_grams"`
	Rolls        float64 `json:"rolls"`
}

type Projection struct {
	BusinessDate string             `json:"shift_date"`
	From         time.Time          `json:"from"`
	To           time.Time          `json:"to"`
	Products     []ProductUsage     `json:"products"`
	Totals       Totals             `json:"totals"`
	Unmapped     map[string]float64 `json:"unmapped"`
}

// Project converts the items sold in w into consumable usage. Items outside
// the window are ignored; names the catalogue does not know are collected in
// Unmapped with their raw quantity.
func Project(w shiftwindow.Window, items []LineItem, c *Catalogue) Projection {
	p := Projection{
		BusinessDate: w.Label(),
		From:         w.Start,
		To:           w.End,
		Products:     []ProductUsage{},
		Unmapped:     map[string]float64{},
	}

	byKey := map[string]*ProductUsage{}
	seenRaw := map[string]map[string]bool{}
	for _, it := range items {
		if !w.Contains(it.ReceiptAt) || it.Quantity == 0 {
			continue
		}
		raw := strings.TrimSpace(it.Name)
		key, m, ok := c.Resolve(raw)
		if !ok {
			p.Unmapped[raw] += it.Quantity
			continue
		}

		row, exists := byKey[key]
		if !exists {
			row = &ProductUsage{Name: m.Name, NormalizedName: key}
			byKey[key] = row
			seenRaw[key] = map[string]bool{}
		}
		if !seenRaw[key][raw] {
			seenRaw[key][raw] = true
			row.RawNames = append(row.RawNames, raw)
		}

		row.Quantity += it.Quantity
		row.Patties += it.Quantity * m.PattiesPerUnit
		row.RedMeatGrams += it.Quantity * m.RedMeatGramsPerUnit
		row.ChickenGrams += it.Quantity * m.ChickenGramsPerUnit
		row.Rolls += it.Quantity * m.RollsPerUnit
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row := byKey[k]
		sort.Strings(row.RawNames)
		p.Products = append(p.Products, *row)

		p.Totals.Burgers += row.Quantity
		p.Totals.Patties += row.Patties
		p.Totals.RedMeatGrams += row.RedMeatGrams
		p.Totals.ChickenGrams += row.ChickenGrams
		p.Totals.Rolls += row.Rolls
	}
	return p
}

// UnmappedNames lists the unmapped raw names in lexical order.
func (p Projection) UnmappedNames() []string {
	names := make([]string, 0, len(p.Unmapped))
	for n := range p.Unmapped {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package usage

import (
	"io"

	"shiftcost-backend/internal/export"
)

var csvHeader = []string{"product", "qty", "patties", "red_meat_grams", "chicken_grams", "rolls"}

// WriteCSV writes one row per product, a TOTAL row, then one row per
// unmapped name with only its quantity filled in.
func WriteCSV(w io.Writer, p Projection) error {
	rows := make([][]string, 0, len(p.Products)+len(p.Unmapped)+1)
	for _, r := range p.Products {
		rows = append(rows, []string{
			r.NormalizedName,
			export.Float(r.Quantity),
			export.Float(r.Patties),
			export.Float(r.RedMeatGrams),
			export.Float(r.ChickenGrams),
			export.Float(r.Rolls),
		})
	}
	rows = append(rows, []string{
		"TOTAL",
		export.Float(p.Totals.Burgers),
		export.Float(p.Totals.Patties),
		export.Float(p.Totals.RedMeatGrams),
		export.Float(p.Totals.ChickenGrams),
		export.Float(p.Totals.Rolls),
	})
	for _, name := range p.UnmappedNames() {
		rows = append(rows, []string{"UNMAPPED: " + name, export.Float(p.Unmapped[name]), "", "", "", ""})
	}
	return export.WriteCSV(w, csvHeader, rows)
}

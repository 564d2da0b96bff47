package usage

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseMappingsXLSX reads the first sheet of a catalogue workbook. Columns:
// name, patties, red meat grams, chicken grams, rolls. A first row whose
// name cell reads "name" or "product" is treated as a header. Rows that
// cannot be read are returned as skipped with the reason.
func ParseMappingsXLSX(r io.Reader) ([]Mapping, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.ToLower(strings.TrimSpace(rows[0][0]))
		if strings.Contains(first, "name") || strings.Contains(first, "product") {
			start = 1
		}
	}

	var mappings []Mapping
	var skipped []string
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		m := Mapping{Name: strings.TrimSpace(row[0])}
		targets := []*float64{&m.PattiesPerUnit, &m.RedMeatGramsPerUnit, &m.ChickenGramsPerUnit, &m.RollsPerUnit}
		bad := ""
		for col, dst := range targets {
			if col+1 >= len(row) || strings.TrimSpace(row[col+1]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col+1]), 64)
			if err != nil || v < 0 {
				bad = fmt.Sprintf("row %d (%s): column %d is not a non-negative number", i+1, m.Name, col+2)
				break
			}
			*dst = v
		}
		if bad != "" {
			skipped = append(skipped, bad)
			continue
		}
		mappings = append(mappings, m)
	}
	return mappings, skipped, nil
}

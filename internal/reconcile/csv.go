package reconcile

import (
	"io"

	"shiftcost-backend/internal/export"
)

var csvHeader = []string{"business_date", "availability", "section", "label", "pos_value", "form_value", "diff", "matched"}

// WriteCSV writes the comparison rows with money at two decimals. A
// comparison without rows writes a single availability line.
func WriteCSV(w io.Writer, c ShiftComparison) error {
	rows := make([][]string, 0, len(c.Rows)+1)
	for _, r := range c.Rows {
		rows = append(rows, []string{
			c.BusinessDate,
			string(c.Availability),
			r.Section,
			r.Label,
			r.POS.StringFixed(2),
			r.Form.StringFixed(2),
			r.Diff.StringFixed(2),
			export.Bool(r.Matched),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{c.BusinessDate, string(c.Availability), "", "", "", "", "", ""})
	}
	return export.WriteCSV(w, csvHeader, rows)
}

package ledger

import (
	"io"
	"strings"

	"shiftcost-backend/internal/export"
	"shiftcost-backend/internal/shiftwindow"
)

var csvHeader = []string{"business_date", "item_kind", "opening", "purchased", "sold", "expected_closing", "actual_closing", "variance", "status"}

func entryRow(e Entry) []string {
	return []string{
		e.BusinessDate.Format(shiftwindow.DateLayout),
		string(e.Kind),
		export.Float(e.Opening),
		export.Float(e.Purchased),
		export.Float(e.Sold),
		export.Float(e.Expected()),
		export.OptFloat(e.Actual),
		export.OptFloat(e.Variance()),
		string(e.Status),
	}
}

// WriteCSV writes entries in the order given.
func WriteCSV(w io.Writer, entries []Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryRow(e))
	}
	return export.WriteCSV(w, csvHeader, rows)
}

// WriteXLSX writes one sheet per kind.
func WriteXLSX(w io.Writer, kinds []Kind, history map[Kind][]Entry) error {
	sheets := make([]export.Sheet, 0, len(kinds))
	for _, k := range kinds {
		rows := make([][]string, 0, len(history[k]))
		for _, e := range history[k] {
			rows = append(rows, entryRow(e))
		}
		sheets = append(sheets, export.Sheet{Name: sheetName(k), Header: csvHeader, Rows: rows})
	}
	return export.WriteXLSX(w, sheets)
}

// sheetName fits a kind into Excel's 31 character sheet names, which may
// not contain ':'.
func sheetName(k Kind) string {
	n := strings.NewReplacer(":", " ", "/", " ", "\\", " ", "?", " ", "*", " ", "[", " ", "]", " ").Replace(string(k))
	if r := []rune(n); len(r) > 31 {
		n = string(r[:31])
	}
	return n
}

// Package export writes tabular reports. Column and row order are decided by
// the caller; formatting here is deterministic so identical inputs produce
// identical bytes.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// WriteCSV writes a header and rows with "\n" line endings.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if len(r) != len(header) {
			return fmt.Errorf("export: row has %d columns, header has %d", len(r), len(header))
		}
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Float formats with the shortest exact representation; negative zero is
// written as "0".
func Float(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OptFloat writes nil as an empty cell.
func OptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return Float(*v)
}

func Bool(b bool) string {
	return strconv.FormatBool(b)
}

type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteXLSX writes one worksheet per sheet, in order. Cells that parse as
// numbers are written as numbers.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("export: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return err
		}
		if err := writeRow(f, sh.Name, 1, sh.Header); err != nil {
			return err
		}
		for r, row := range sh.Rows {
			if err := writeRow(f, sh.Name, r+2, row); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	for col, v := range cells {
		ref, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		var value any = v
		if n, err := strconv.ParseFloat(v, 64); err == nil && row > 1 {
			value = n
		}
		if err := f.SetCellValue(sheet, ref, value); err != nil {
			return err
		}
	}
	return nil
}

// Send renders a report into the response with a download filename.
func Send(c *fiber.Ctx, filename, contentType string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "export failed: "+err.Error())
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

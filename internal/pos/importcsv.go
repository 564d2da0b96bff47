package pos

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"shiftcost-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt CSV columns. One row per receipt line; the receipt fields repeat
// on every line of the same receipt.
var importColumns = []string{"receipt_id", "receipt_at", "payment_method", "amount", "item", "qty"}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"}

func parseReceiptTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("receipt_at %q is not a timestamp", s)
}

func parsePaymentMethod(s string) (models.PaymentMethod, error) {
	switch m := models.PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case models.PaymentCash, models.PaymentQR, models.PaymentGrab:
		return m, nil
	case "promptpay", "qr code":
		return models.PaymentQR, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// ParseReceiptsCSV reads a receipt export. Times without an offset are
// read in loc. Rows without a receipt id are grouped by time, method and
// amount and given a generated id. Bad rows are reported and skipped.
func ParseReceiptsCSV(r io.Reader, loc *time.Location) ([]models.Receipt, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, nil, err
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range importColumns[1:] {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("csv is missing column %q", name)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		receipts []models.Receipt
		index    = map[string]int{}
		problems []string
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		at, err := parseReceiptTime(field(rec, "receipt_at"), loc)
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		method, err := parsePaymentMethod(field(rec, "payment_method"))
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		amount, err := decimal.NewFromString(field(rec, "amount"))
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: amount %q", line, field(rec, "amount")))
			continue
		}
		qty, err := strconv.ParseFloat(field(rec, "qty"), 64)
		if err != nil || qty <= 0 {
			problems = append(problems, fmt.Sprintf("line %d: qty %q", line, field(rec, "qty")))
			continue
		}
		item := field(rec, "item")
		if item == "" {
			problems = append(problems, fmt.Sprintf("line %d: item is empty", line))
			continue
		}

		id := field(rec, "receipt_id")
		key := id
		if key == "" {
			key = at.UTC().Format(time.RFC3339) + "|" + string(method) + "|" + amount.String()
		}
		i, ok := index[key]
		if !ok {
			if id == "" {
				// stable across re-imports of the same export
				id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
			}
			receipts = append(receipts, models.Receipt{ID: id, ReceiptAt: at, PaymentMethod: method, Amount: amount})
			i = len(receipts) - 1
			index[key] = i
		}
		receipts[i].Lines = append(receipts[i].Lines, models.ReceiptLine{ReceiptID: receipts[i].ID, ItemName: item, Quantity: qty})
	}
	return receipts, problems, nil
}

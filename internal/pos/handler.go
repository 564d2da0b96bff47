package pos

import (
	"context"
	"sort"
	"strings"
	"time"

	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Refresher is the part of the ledger new receipts need: their sold
// counts change.
type Refresher interface {
	Refresh(ctx context.Context, date time.Time, kind ledger.Kind) (ledger.Entry, error)
}

type Handlers struct {
	Store    *Store
	Ledger   Refresher // optional
	Location *time.Location
	Log      *zap.Logger
}

type ReceiptLineRequest struct {
	Item string  `json:"item"`
	Qty  float64 `json:"qty"`
}

type ReceiptRequest struct {
	ID            string               `json:"id"`
	ReceiptAt     time.Time            `json:"receipt_at"`
	PaymentMethod string               `json:"payment_method"`
	Amount        decimal.Decimal      `json:"amount"`
	Lines         []ReceiptLineRequest `json:"lines"`
}

type ImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func (h Handlers) toReceipt(r ReceiptRequest) (models.Receipt, error) {
	if r.ReceiptAt.IsZero() {
		return models.Receipt{}, fiber.NewError(fiber.StatusBadRequest, "receipt_at is required")
	}
	method, err := parsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return models.Receipt{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(r.Lines) == 0 {
		return models.Receipt{}, fiber.NewError(fiber.StatusBadRequest, "a receipt needs at least one line")
	}
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = uuid.NewString()
	}
	out := models.Receipt{ID: id, ReceiptAt: r.ReceiptAt, PaymentMethod: method, Amount: r.Amount}
	for _, l := range r.Lines {
		if strings.TrimSpace(l.Item) == "" || l.Qty <= 0 {
			return models.Receipt{}, fiber.NewError(fiber.StatusBadRequest, "every line needs an item and a positive qty")
		}
		out.Lines = append(out.Lines, models.ReceiptLine{ReceiptID: id, ItemName: l.Item, Quantity: l.Qty})
	}
	return out, nil
}

// refreshDates brings rolls and meat up to date for every shift the
// receipts fall in.
func (h Handlers) refreshDates(ctx context.Context, receipts []models.Receipt) {
	if h.Ledger == nil {
		return
	}
	dates := map[time.Time]bool{}
	for _, r := range receipts {
		if d, ok := shiftwindow.BusinessDateOf(r.ReceiptAt, h.Location); ok {
			dates[d] = true
		}
	}
	sorted := make([]time.Time, 0, len(dates))
	for d := range dates {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	for _, d := range sorted {
		for _, k := range []ledger.Kind{ledger.KindRolls, ledger.KindMeat} {
			if _, err := h.Ledger.Refresh(ctx, d, k); err != nil {
				h.Log.Warn("ledger refresh after receipts failed",
					zap.String("date", d.Format(shiftwindow.DateLayout)), zap.String("kind", string(k)), zap.Error(err))
			}
		}
	}
}

// POST /api/pos/receipts
func CreateReceiptsHandler(h Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body []ReceiptRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Body must be a list of receipts")
		}
		receipts := make([]models.Receipt, 0, len(body))
		for _, r := range body {
			rec, err := h.toReceipt(r)
			if err != nil {
				return err
			}
			receipts = append(receipts, rec)
		}
		n, err := h.Store.SaveReceipts(c.UserContext(), receipts)
		if err != nil {
			h.Log.Error("receipts not saved", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Receipts could not be saved")
		}
		h.refreshDates(c.UserContext(), receipts)
		return c.Status(fiber.StatusCreated).JSON(ImportResponse{
			Imported: n,
			Skipped:  len(receipts) - n,
			Errors:   []string{},
		})
	}
}

// POST /api/pos/receipts/import (multipart field "file", csv)
func ImportReceiptsHandler(h Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "A csv file is required in field 'file'")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File could not be opened")
		}
		defer f.Close()

		receipts, problems, err := ParseReceiptsCSV(f, h.Location)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		n, err := h.Store.SaveReceipts(c.UserContext(), receipts)
		if err != nil {
			h.Log.Error("receipt import failed", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Receipts could not be saved")
		}
		h.Log.Info("receipts imported", zap.Int("imported", n), zap.Int("problems", len(problems)))
		h.refreshDates(c.UserContext(), receipts)
		if problems == nil {
			problems = []string{}
		}
		return c.JSON(ImportResponse{Imported: n, Skipped: len(receipts) - n, Errors: problems})
	}
}

// PUT /api/pos/shifts/:date stores the summary the POS sync delivers.
func PutShiftHandler(h Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		var body models.ShiftTotals
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		ps, err := h.Store.SaveShift(c.UserContext(), date, reconcile.DeriveBanking(body), "sync")
		if err != nil {
			h.Log.Error("pos shift not saved", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "POS shift could not be saved")
		}
		return c.JSON(ps)
	}
}

// POST /api/pos/shifts/:date/derive rebuilds the POS sales of a shift
// from its receipts, keeping expenses already on record.
func DeriveShiftHandler(h Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w := shiftwindow.Resolve(date, h.Location)
		receipts, err := h.Store.Receipts(c.UserContext(), w)
		if err != nil {
			h.Log.Error("receipts not loaded", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Receipts could not be loaded")
		}
		if len(receipts) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "No receipts in this shift")
		}
		totals := SummarizeReceipts(w, receipts)
		stored, ok, err := h.Store.Shift(c.UserContext(), date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "POS shift could not be loaded")
		}
		if ok {
			totals = mergeExpenses(totals, stored.ShiftTotals)
		}
		ps, err := h.Store.SaveShift(c.UserContext(), date, totals, "receipts")
		if err != nil {
			h.Log.Error("pos shift not saved", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "POS shift could not be saved")
		}
		return c.JSON(ps)
	}
}

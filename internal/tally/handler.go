package tally

import (
	"context"
	"errors"
	"strings"
	"time"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is what a new purchase or count has to tell the ledger.
type Ledger interface {
	Refresh(ctx context.Context, date time.Time, kind ledger.Kind) (ledger.Entry, error)
	RecordActual(ctx context.Context, date time.Time, kind ledger.Kind, actual float64) (ledger.Entry, error)
}

type PurchaseRequest struct {
	BusinessDate string          `json:"business_date"`
	ItemKind     string          `json:"item_kind"`
	Quantity     float64         `json:"quantity"`
	Supplier     string          `json:"supplier"`
	AmountTHB    decimal.Decimal `json:"amount_thb"`
	Staff        string          `json:"staff"`
	Note         string          `json:"note"`
}

type StockCountRequest struct {
	BusinessDate string   `json:"business_date"`
	ItemKind     string   `json:"item_kind"`
	Sold         *float64 `json:"sold"`
	Closing      *float64 `json:"closing"`
	Note         string   `json:"note"`
}

// LedgerError names a ledger cell that did not follow a saved record. The
// record itself is stored; refreshing the cell later catches it up.
type LedgerError struct {
	Kind  ledger.Kind `json:"item_kind"`
	Error string      `json:"error"`
}

// LedgerRetry is the client-facing text of a LedgerError.
const LedgerRetry = "ledger not updated, refresh this item to retry"

type PurchaseResponse struct {
	Purchase    models.Purchase `json:"purchase"`
	Ledger      *ledger.Entry   `json:"ledger"`
	LedgerError *LedgerError    `json:"ledger_error,omitempty"`
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

func parseCell(date, kind string) (time.Time, ledger.Kind, error) {
	d, err := shiftwindow.ParseBusinessDate(date)
	if err != nil {
		return time.Time{}, "", badRequest(err)
	}
	k, err := ledger.ParseKind(kind)
	if err != nil {
		return time.Time{}, "", badRequest(err)
	}
	return d, k, nil
}

// POST /api/purchases
func CreatePurchaseHandler(s *Store, l Ledger, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		date, kind, err := parseCell(body.BusinessDate, body.ItemKind)
		if err != nil {
			return err
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		p, err := s.AddPurchase(c.UserContext(), actor, models.Purchase{
			BusinessDate: date,
			ItemKind:     string(kind),
			Quantity:     body.Quantity,
			Supplier:     strings.TrimSpace(body.Supplier),
			AmountTHB:    body.AmountTHB,
			Staff:        strings.TrimSpace(body.Staff),
			Note:         body.Note,
		})
		if err != nil {
			log.Error("purchase not saved", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Purchase could not be saved")
		}

		resp := PurchaseResponse{Purchase: p}
		if e, err := l.Refresh(c.UserContext(), date, kind); err != nil {
			// the purchase is stored; the ledger catches up on the next refresh
			log.Warn("ledger refresh after purchase failed", zap.String("kind", string(kind)), zap.Error(err))
			resp.LedgerError = &LedgerError{Kind: kind, Error: LedgerRetry}
		} else {
			resp.Ledger = &e
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/purchases?date=2025-03-14
func ListPurchasesHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Query("date"))
		if err != nil {
			return badRequest(err)
		}
		ps, err := s.Purchases(c.UserContext(), date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Purchases could not be listed")
		}
		return c.JSON(ps)
	}
}

type StockCountResponse struct {
	Count       models.StockCount `json:"count"`
	Ledger      *ledger.Entry     `json:"ledger"`
	LedgerError *LedgerError      `json:"ledger_error,omitempty"`
}

// POST /api/stock-counts
func SaveStockCountHandler(s *Store, l Ledger, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockCountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		date, kind, err := parseCell(body.BusinessDate, body.ItemKind)
		if err != nil {
			return err
		}
		if body.Sold == nil && body.Closing == nil {
			return fiber.NewError(fiber.StatusBadRequest, "sold or closing is required")
		}
		if body.Sold != nil && !kind.IsDrink() {
			return fiber.NewError(fiber.StatusBadRequest, "sold is counted by hand for drinks only")
		}
		if (body.Sold != nil && *body.Sold < 0) || (body.Closing != nil && *body.Closing < 0) {
			return badRequest(ledger.ErrNegativeCount)
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		row, err := s.SaveCount(c.UserContext(), actor, date, kind, body.Sold, body.Closing, body.Note)
		if err != nil {
			log.Error("stock count not saved", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Stock count could not be saved")
		}

		resp := StockCountResponse{Count: row}
		e, err := Sync(c.UserContext(), l, date, kind, row.Closing)
		switch {
		case errors.Is(err, ledger.ErrNegativeCount):
			return badRequest(err)
		case err != nil:
			log.Warn("ledger update after count failed", zap.String("kind", string(kind)), zap.Error(err))
			resp.LedgerError = &LedgerError{Kind: kind, Error: LedgerRetry}
		default:
			resp.Ledger = &e
		}
		return c.JSON(resp)
	}
}

// Sync refreshes the ledger cell of a count and records its closing, when
// there is one.
func Sync(ctx context.Context, l Ledger, date time.Time, kind ledger.Kind, closing *float64) (ledger.Entry, error) {
	e, err := l.Refresh(ctx, date, kind)
	if err != nil || closing == nil {
		return e, err
	}
	return l.RecordActual(ctx, date, kind, *closing)
}

// Resetter is the ledger once counts can be undone.
type Resetter interface {
	Ledger
	ClearActual(ctx context.Context, date time.Time, kind ledger.Kind) (ledger.Entry, error)
}

// AfterUndo brings a ledger cell back in line with the purchases and the
// count left after an undo.
func AfterUndo(s *Store, l Resetter) audit.AfterUndo {
	return func(ctx context.Context, t audit.Touched) error {
		kind, err := ledger.ParseKind(t.ItemKind)
		if err != nil {
			return err
		}
		date := shiftwindow.DateOf(t.BusinessDate, time.UTC)
		c, ok, err := s.Count(ctx, date, kind)
		if err != nil {
			return err
		}
		if ok && c.Closing != nil {
			_, err = Sync(ctx, l, date, kind, c.Closing)
			return err
		}
		if _, err := l.Refresh(ctx, date, kind); err != nil {
			return err
		}
		_, err = l.ClearActual(ctx, date, kind)
		return err
	}
}

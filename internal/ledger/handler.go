package ledger

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/export"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func kindParam(c *fiber.Ctx) (Kind, error) {
	raw, err := url.PathUnescape(c.Params("kind"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid item kind")
	}
	k, err := ParseKind(raw)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return k, nil
}

func dateParam(c *fiber.Ctx) (time.Time, error) {
	d, err := shiftwindow.ParseBusinessDate(c.Params("date"))
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return d, nil
}

func daysQuery(c *fiber.Ctx) (int, error) {
	s := c.Query("days")
	if s == "" {
		return DefaultHistoryDays, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > MaxHistoryDays {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", MaxHistoryDays))
	}
	return n, nil
}

func toHTTPError(log *zap.Logger, msg string, err error) error {
	if errors.Is(err, ErrInvalidKind) || errors.Is(err, ErrNegativeCount) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	log.Error(msg, zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// POST /api/ledger/:date/:kind/refresh
func RefreshHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := dateParam(c)
		if err != nil {
			return err
		}
		kind, err := kindParam(c)
		if err != nil {
			return err
		}
		e, err := l.Refresh(c.UserContext(), date, kind)
		if err != nil {
			return toHTTPError(l.log, "Ledger refresh failed", err)
		}
		return c.JSON(e)
	}
}

type ActualRequest struct {
	Actual *float64 `json:"actual"`
}

// PUT /api/ledger/:date/:kind/actual
func RecordActualHandler(l *Ledger, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := dateParam(c)
		if err != nil {
			return err
		}
		kind, err := kindParam(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body ActualRequest
		if err := c.BodyParser(&body); err != nil || body.Actual == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Body must carry an 'actual' count")
		}

		var before any
		prev, had, err := l.store.Get(c.UserContext(), day(date), kind)
		if err != nil {
			return toHTTPError(l.log, "Ledger entry could not be loaded", err)
		}
		if had {
			before = prev
		}
		e, err := l.RecordActual(c.UserContext(), date, kind, *body.Actual)
		if err != nil {
			return toHTTPError(l.log, "Closing count could not be recorded", err)
		}

		if err := audit.WriteLog(db.WithContext(c.UserContext()), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityLedgerEntry,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Closing count %s %s: %s", e.BusinessDate.Format(shiftwindow.DateLayout), e.Kind, export.Float(*body.Actual)),
			Before:      before,
			After:       e,
		}); err != nil {
			l.log.Warn("audit log failed", zap.Error(err))
		}
		return c.JSON(e)
	}
}

// GET /api/ledger/:kind/history?days=14
func HistoryHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := kindParam(c)
		if err != nil {
			return err
		}
		days, err := daysQuery(c)
		if err != nil {
			return err
		}
		entries, err := l.History(c.UserContext(), kind, days)
		if err != nil {
			return toHTTPError(l.log, "Ledger history could not be loaded", err)
		}
		return c.JSON(entries)
	}
}

// GET /api/ledger/:kind/export.csv?days=14
func ExportCSVHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := kindParam(c)
		if err != nil {
			return err
		}
		days, err := daysQuery(c)
		if err != nil {
			return err
		}
		entries, err := l.History(c.UserContext(), kind, days)
		if err != nil {
			return toHTTPError(l.log, "Ledger history could not be loaded", err)
		}
		return export.Send(c, "ledger-"+sheetName(kind)+".csv", export.ContentTypeCSV, func(w io.Writer) error {
			return WriteCSV(w, entries)
		})
	}
}

// GET /api/ledger/export.xlsx?days=14
func ExportXLSXHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		days, err := daysQuery(c)
		if err != nil {
			return err
		}
		last := shiftwindow.LastCompleted(l.now(), time.UTC)
		from := last.AddDate(0, 0, -(days - 1))
		kinds, err := l.KindsBetween(c.UserContext(), from, days)
		if err != nil {
			return toHTTPError(l.log, "Ledger kinds could not be loaded", err)
		}
		history := make(map[Kind][]Entry, len(kinds))
		for _, k := range kinds {
			if history[k], err = l.History(c.UserContext(), k, days); err != nil {
				return toHTTPError(l.log, "Ledger history could not be loaded", err)
			}
		}
		return export.Send(c, "ledger.xlsx", export.ContentTypeXLSX, func(w io.Writer) error {
			return WriteXLSX(w, kinds, history)
		})
	}
}

// POST /api/ledger/rebuild?from=2025-03-01&days=14
func RebuildHandler(l *Ledger, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		days, err := daysQuery(c)
		if err != nil {
			return err
		}
		var from time.Time
		if s := c.Query("from"); s != "" {
			if from, err = shiftwindow.ParseBusinessDate(s); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		} else {
			from = shiftwindow.LastCompleted(l.now(), loc).AddDate(0, 0, -(days - 1))
		}
		report, err := l.Rebuild(c.UserContext(), from, days, nil)
		if err != nil {
			return toHTTPError(l.log, "Ledger rebuild failed", err)
		}
		return c.JSON(report)
	}
}

package reconcile

import (
	"io"
	"time"

	"shiftcost-backend/internal/export"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/reconciliation/:date
func GetComparisonHandler(s *Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		cmp, err := s.Compare(c.UserContext(), date)
		if err != nil {
			log.Error("reconciliation failed", zap.Time("date", date), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Reconciliation could not be computed")
		}
		return c.JSON(cmp)
	}
}

// GET /api/reconciliation?month=2025-03
func MonthHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		month := time.Now().UTC()
		if m := c.Query("month"); m != "" {
			parsed, err := time.Parse("2006-01", m)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "month must be YYYY-MM")
			}
			month = parsed
		}
		strip, err := s.Month(c.UserContext(), month)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Month could not be loaded")
		}
		return c.JSON(fiber.Map{
			"month": month.Format("2006-01"),
			"days":  strip,
		})
	}
}

// GET /api/reconciliation/:date/export.csv
func ExportCSVHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		cmp, err := s.Compare(c.UserContext(), date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reconciliation could not be computed")
		}
		return export.Send(c, "reconciliation-"+cmp.BusinessDate+".csv", export.ContentTypeCSV, func(w io.Writer) error {
			return WriteCSV(w, cmp)
		})
	}
}

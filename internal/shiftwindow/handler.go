package shiftwindow

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type windowResponse struct {
	BusinessDate string    `json:"business_date"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Hours        float64   `json:"hours"`
}

// GET /api/shift-window?date=2025-03-14; no date means the last closed shift.
func Handler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := DateOrLast(c.Query("date"), time.Now(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w := Resolve(d, loc)
		return c.JSON(windowResponse{
			BusinessDate: w.Label(),
			Start:        w.Start,
			End:          w.End,
			Hours:        w.Duration().Hours(),
		})
	}
}

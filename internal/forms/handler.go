package forms

import (
	"fmt"

	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"
	"shiftcost-backend/internal/tally"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaveFormResponse struct {
	Form   Form           `json:"form"`
	Ledger []ledger.Entry `json:"ledger"`
	// kinds whose ledger cell did not follow the form; retry with a refresh
	LedgerErrors []tally.LedgerError `json:"ledger_errors"`
}

func validate(f Form) error {
	for _, c := range f.counts() {
		if _, err := ledger.ParseKind(string(c.kind)); err != nil {
			return err
		}
		for _, v := range []*float64{c.sold, c.closing} {
			if v != nil && *v < 0 {
				return fmt.Errorf("%s: %w", c.kind, ledger.ErrNegativeCount)
			}
		}
	}
	return nil
}

// PUT /api/forms/:date
// Saving the form records its end counts as the ledger's actual closings.
func SaveFormHandler(s *Store, l tally.Ledger, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		var body Form
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.ID = 0
		body.BusinessDate = date
		if err := validate(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		if body.CompletedBy == "" {
			body.CompletedBy = actor.Name
		}

		saved, err := s.Save(c.UserContext(), actor, body)
		if err != nil {
			log.Error("shift form not saved", zap.String("date", c.Params("date")), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Shift form could not be saved")
		}

		resp := SaveFormResponse{Form: saved, Ledger: []ledger.Entry{}, LedgerErrors: []tally.LedgerError{}}
		for _, cnt := range body.counts() {
			e, err := tally.Sync(c.UserContext(), l, date, cnt.kind, cnt.closing)
			if err != nil {
				log.Warn("ledger update after form failed", zap.String("kind", string(cnt.kind)), zap.Error(err))
				resp.LedgerErrors = append(resp.LedgerErrors, tally.LedgerError{Kind: cnt.kind, Error: tally.LedgerRetry})
				continue
			}
			resp.Ledger = append(resp.Ledger, e)
		}
		return c.JSON(resp)
	}
}

// GET /api/forms/:date
func GetFormHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		f, ok, err := s.Get(c.UserContext(), date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Shift form could not be loaded")
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "No shift form for this date")
		}
		return c.JSON(f)
	}
}

type ReviewRequest struct {
	ActualBanked *decimal.Decimal `json:"actual_banked"`
	Note         string           `json:"note"`
}

// PUT /api/reviews/:date
func SaveReviewHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.ParseBusinessDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		var body ReviewRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ActualBanked != nil && body.ActualBanked.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "actual_banked cannot be negative")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		r, err := s.SaveReview(c.UserContext(), actor, models.ManagerReview{
			BusinessDate: date,
			ActualBanked: body.ActualBanked,
			Note:         body.Note,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Review could not be saved")
		}
		return c.JSON(r)
	}
}

// Package reconcile compares the POS view of a shift with the form staff
// fill in at close.
package reconcile

import (
	"time"

	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/shopspring/decimal"
)

type Availability string

const (
	AvailabilityOK          Availability = "ok"
	AvailabilityMissingPOS  Availability = "missing_pos"
	AvailabilityMissingForm Availability = "missing_form"
	AvailabilityMissingBoth Availability = "missing_both"
)

const (
	SectionSales    = "Sales"
	SectionExpenses = "Expenses"
	SectionBanking  = "Banking"
)

// BankedTolerance is how far the banked amount may sit from the form's
// estimate and still match.
var BankedTolerance = decimal.New(1, -2)

type Row struct {
	Section string          `json:"section"`
	Label   string          `json:"label"`
	POS     decimal.Decimal `json:"pos_value"`
	Form    decimal.Decimal `json:"form_value"`
	Diff    decimal.Decimal `json:"diff"`
	Matched bool            `json:"matched"`
}

type ShiftComparison struct {
	BusinessDate string              `json:"business_date"`
	Availability Availability        `json:"availability"`
	POS          *models.ShiftTotals `json:"pos"`
	Form         *models.ShiftTotals `json:"form"`
	Rows         []Row               `json:"rows"`
	Mismatches   int                 `json:"mismatches"`
}

func availability(pos, form *models.ShiftTotals) Availability {
	switch {
	case pos == nil && form == nil:
		return AvailabilityMissingBoth
	case pos == nil:
		return AvailabilityMissingPOS
	case form == nil:
		return AvailabilityMissingForm
	default:
		return AvailabilityOK
	}
}

type metric struct {
	section, label string
	value          func(t *models.ShiftTotals) decimal.Decimal
}

var metrics = []metric{
	{SectionSales, "Cash", func(t *models.ShiftTotals) decimal.Decimal { return t.CashSales }},
	{SectionSales, "QR", func(t *models.ShiftTotals) decimal.Decimal { return t.QRSales }},
	{SectionSales, "Grab", func(t *models.ShiftTotals) decimal.Decimal { return t.GrabSales }},
	{SectionSales, "Total", func(t *models.ShiftTotals) decimal.Decimal { return t.TotalSales }},
	{SectionExpenses, "Shopping", func(t *models.ShiftTotals) decimal.Decimal { return t.ShoppingTotal }},
	{SectionExpenses, "Wages", func(t *models.ShiftTotals) decimal.Decimal { return t.WageTotal }},
	{SectionExpenses, "Other", func(t *models.ShiftTotals) decimal.Decimal { return t.OtherTotal }},
	{SectionExpenses, "Total", func(t *models.ShiftTotals) decimal.Decimal { return t.TotalExpenses }},
	{SectionBanking, "Est. Net Banked", func(t *models.ShiftTotals) decimal.Decimal { return t.EstimatedNetBanked }},
	{SectionBanking, "Expected Cash", func(t *models.ShiftTotals) decimal.Decimal { return t.ExpectedCash }},
}

// Compare builds the comparison for one business date. Rows exist only
// when both records are present; diff is form minus POS and must be
// exactly zero to match. When actualBanked is set, a final Banking row
// compares it with the form's estimated net banked within BankedTolerance.
func Compare(date time.Time, pos, form *models.ShiftTotals, actualBanked *decimal.Decimal) ShiftComparison {
	out := ShiftComparison{
		BusinessDate: date.Format(shiftwindow.DateLayout),
		Availability: availability(pos, form),
		POS:          pos,
		Form:         form,
		Rows:         []Row{},
	}
	if out.Availability != AvailabilityOK {
		return out
	}

	for _, m := range metrics {
		p, f := m.value(pos), m.value(form)
		diff := f.Sub(p)
		out.Rows = append(out.Rows, Row{
			Section: m.section,
			Label:   m.label,
			POS:     p,
			Form:    f,
			Diff:    diff,
			Matched: diff.IsZero(),
		})
	}

	if actualBanked != nil {
		est := form.EstimatedNetBanked
		diff := actualBanked.Sub(est)
		out.Rows = append(out.Rows, Row{
			Section: SectionBanking,
			Label:   "Actual Banked",
			POS:     est,
			Form:    *actualBanked,
			Diff:    diff,
			Matched: diff.Abs().LessThanOrEqual(BankedTolerance),
		})
	}

	for _, r := range out.Rows {
		if !r.Matched {
			out.Mismatches++
		}
	}
	return out
}

// DeriveBanking fills the totals and banking figures a record left at
// zero: total sales from the channels, total expenses from the parts,
// expected cash as cash sales less expenses and estimated net banked as
// total sales less expenses.
func DeriveBanking(t models.ShiftTotals) models.ShiftTotals {
	if t.TotalSales.IsZero() {
		t.TotalSales = t.CashSales.Add(t.QRSales).Add(t.GrabSales)
	}
	if t.TotalExpenses.IsZero() {
		t.TotalExpenses = t.ShoppingTotal.Add(t.WageTotal).Add(t.OtherTotal)
	}
	if t.ExpectedCash.IsZero() {
		t.ExpectedCash = t.CashSales.Sub(t.TotalExpenses)
	}
	if t.EstimatedNetBanked.IsZero() {
		t.EstimatedNetBanked = t.TotalSales.Sub(t.TotalExpenses)
	}
	return t
}

type DayAvailability struct {
	BusinessDate string       `json:"business_date"`
	Availability Availability `json:"availability"`
}

// MonthStrip lists the availability of every day in month, given the
// business dates ("YYYY-MM-DD") that have a POS record and a form.
func MonthStrip(month time.Time, posDates, formDates map[string]bool) []DayAvailability {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	out := make([]DayAvailability, 0, days)
	for _, d := range shiftwindow.Range(first, days) {
		key := d.Format(shiftwindow.DateLayout)
		var pos, form *models.ShiftTotals
		if posDates[key] {
			pos = &models.ShiftTotals{}
		}
		if formDates[key] {
			form = &models.ShiftTotals{}
		}
		out = append(out, DayAvailability{BusinessDate: key, Availability: availability(pos, form)})
	}
	return out
}

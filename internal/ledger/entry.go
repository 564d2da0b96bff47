// Package ledger keeps the perpetual inventory of the consumables counted
// at close: bread rolls, ground meat and canned drinks.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"shiftcost-backend/internal/shiftwindow"
)

var (
	ErrInvalidKind   = errors.New("invalid item kind")
	ErrNegativeCount = errors.New("count cannot be negative")
)

// Kind is "rolls", "meat" or "drink:<brand>". Meat is counted in grams,
// the rest in pieces.
type Kind string

const (
	KindRolls   Kind = "rolls"
	KindMeat    Kind = "meat"
	drinkPrefix      = "drink:"
)

func DrinkKind(brand string) Kind {
	return Kind(drinkPrefix + strings.Join(strings.Fields(strings.ToLower(brand)), " "))
}

func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == string(KindRolls), s == string(KindMeat):
		return Kind(s), nil
	case strings.HasPrefix(s, drinkPrefix):
		k := DrinkKind(strings.TrimPrefix(s, drinkPrefix))
		if k == drinkPrefix {
			return "", fmt.Errorf("%w: drink brand missing", ErrInvalidKind)
		}
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) IsDrink() bool {
	return strings.HasPrefix(string(k), drinkPrefix)
}

// Brand is the drink brand, "" for rolls and meat.
func (k Kind) Brand() string {
	if !k.IsDrink() {
		return ""
	}
	return strings.TrimPrefix(string(k), drinkPrefix)
}

type Status string

const (
	StatusPending Status = "PENDING"
	StatusOK      Status = "OK"
	StatusAlert   Status = "ALERT"
)

// zeroVariance absorbs float representation error only; it is not a
// tolerance band.
const zeroVariance = 1e-9

// Entry is one (business date, kind) row. Expected closing and variance
// are always derived from the stored counts.
type Entry struct {
	BusinessDate time.Time
	Kind         Kind
	Opening      float64
	Purchased    float64
	Sold         float64
	Actual       *float64
	Status       Status
}

func (e Entry) Expected() float64 {
	return e.Opening + e.Purchased - e.Sold
}

// Variance is actual minus expected, nil until a closing count exists.
func (e Entry) Variance() *float64 {
	if e.Actual == nil {
		return nil
	}
	v := *e.Actual - e.Expected()
	if math.Abs(v) < zeroVariance {
		v = 0
	}
	return &v
}

func (e Entry) derivedStatus() Status {
	v := e.Variance()
	switch {
	case v == nil:
		return StatusPending
	case *v == 0:
		return StatusOK
	default:
		return StatusAlert
	}
}

// Closing is what the next day opens with: the counted closing when there
// is one, else the expected closing.
func (e Entry) Closing() float64 {
	if e.Actual != nil {
		return *e.Actual
	}
	return e.Expected()
}

type entryJSON struct {
	BusinessDate string   `json:"business_date"`
	Kind         Kind     `json:"item_kind"`
	Opening      float64  `json:"opening"`
	Purchased    float64  `json:"purchased"`
	Sold         float64  `json:"sold"`
	Expected     float64  `json:"expected_closing"`
	Actual       *float64 `json:"actual_closing"`
	Variance     *float64 `json:"variance"`
	Status       Status   `json:"status"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		BusinessDate: e.BusinessDate.Format(shiftwindow.DateLayout),
		Kind:         e.Kind,
		Opening:      e.Opening,
		Purchased:    e.Purchased,
		Sold:         e.Sold,
		Expected:     e.Expected(),
		Actual:       e.Actual,
		Variance:     e.Variance(),
		Status:       e.Status,
	})
}

func day(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Package shiftwindow resolves the trading window of a business date.
//
// The venue trades from 17:00 until 03:00 the next morning, so revenue and
// stock movements are bucketed by business date rather than calendar day.
package shiftwindow

import (
	"fmt"
	"time"
)

const (
	OpenHour = 17
	Width    = 10 * time.Hour

	DateLayout = "2006-01-02"
)

// Window is the half-open interval [Start, End) of one business date.
type Window struct {
	BusinessDate time.Time `json:"business_date"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// Resolve returns the window of business date d. Only the year, month and
// day of d are used, as read in d's own location; the window itself is
// placed in loc. The end is Start+Width even across a DST transition.
func Resolve(d time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	date := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(date.Year(), date.Month(), date.Day(), OpenHour, 0, 0, 0, loc)
	return Window{
		BusinessDate: date,
		Start:        start,
		End:          start.Add(Width),
	}
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Label is the business date as YYYY-MM-DD.
func (w Window) Label() string {
	return w.BusinessDate.Format(DateLayout)
}

// DateOf truncates d to its calendar date in loc and returns it as UTC
// midnight, the form business dates are stored in.
func DateOf(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := d.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseBusinessDate parses "YYYY-MM-DD".
func ParseBusinessDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("business date %q must be YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

// BusinessDateOf maps an instant to the business date whose window holds it.
// Instants between close and the next opening belong to no shift.
func BusinessDateOf(t time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	for _, candidate := range []time.Time{local, local.AddDate(0, 0, -1)} {
		w := Resolve(candidate, loc)
		if w.Contains(t) {
			return w.BusinessDate, true
		}
	}
	return time.Time{}, false
}

// LastCompleted returns the most recent business date whose window has
// closed at now.
func LastCompleted(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	yesterday := Resolve(now.In(loc).AddDate(0, 0, -1), loc)
	if !now.Before(yesterday.End) {
		return yesterday.BusinessDate
	}
	return Resolve(now.In(loc).AddDate(0, 0, -2), loc).BusinessDate
}

// Range lists days consecutive business dates starting at from.
func Range(from time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	first := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, first.AddDate(0, 0, i))
	}
	return out
}

// DateOrLast parses s, or returns the last completed business date when s
// is empty.
func DateOrLast(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return LastCompleted(now, loc), nil
	}
	return ParseBusinessDate(s)
}

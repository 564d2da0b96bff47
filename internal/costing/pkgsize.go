package costing

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// PackageSize is a parsed package description such as "10kg" or "6 Cans".
type PackageSize struct {
	Raw       string  `json:"raw"`
	Quantity  float64 `json:"quantity"`
	Unit      Unit    `json:"unit"`
	Defaulted bool    `json:"defaulted"` // no number in the text, quantity taken as 1
}

// Base is the package quantity in the unit's base (g, ml or each).
func (p PackageSize) Base() float64 {
	return p.Quantity * p.Unit.ToBase
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokWord
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits text into numbers and words. Everything else separates
// tokens. "10kg" gives [10 kg]; a comma between digits is a decimal mark.
func tokenize(text string) []token {
	var out []token
	rs := []rune(text)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i
			seenDot := false
			for j < len(rs) {
				c := rs[j]
				if unicode.IsDigit(c) {
					j++
					continue
				}
				if (c == '.' || c == ',') && !seenDot && j+1 < len(rs) && unicode.IsDigit(rs[j+1]) {
					seenDot = true
					j++
					continue
				}
				break
			}
			out = append(out, token{tokNumber, strings.ReplaceAll(string(rs[i:j]), ",", ".")})
			i = j
		case unicode.IsLetter(r):
			j := i
			for j < len(rs) && unicode.IsLetter(rs[j]) {
				j++
			}
			out = append(out, token{tokWord, strings.ToLower(string(rs[i:j]))})
			i = j
		default:
			i++
		}
	}
	return out
}

// ParsePackageSize reads free package text with the grammar
//
//	size     = { token }
//	unit     = first mass or volume word, else first container word
//	quantity = number right before a mass or volume word, else the first
//	           number, else 1
//
// so "Box 10kg" is 10 kg and "6 Cans" is 6 each. When no word is a unit,
// fallbackUnit is used, and count when that is empty too. Empty text or a
// zero quantity is ErrMissingPackageData.
func ParsePackageSize(text, fallbackUnit string) (PackageSize, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return PackageSize{}, fmt.Errorf("%w: empty package size", ErrMissingPackageData)
	}

	var (
		first, measured  *float64
		measure, boxWord *Unit
	)
	toks := tokenize(raw)
	for i, t := range toks {
		switch t.kind {
		case tokNumber:
			if first != nil {
				continue
			}
			q, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return PackageSize{}, fmt.Errorf("%w: %q", ErrMissingPackageData, raw)
			}
			first = &q
		case tokWord:
			u, err := LookupUnit(t.text)
			if err != nil {
				continue
			}
			if u.Dim == Count {
				if boxWord == nil {
					boxWord = &u
				}
				continue
			}
			if measure != nil {
				continue
			}
			measure = &u
			if i > 0 && toks[i-1].kind == tokNumber {
				if q, err := strconv.ParseFloat(toks[i-1].text, 64); err == nil {
					measured = &q
				}
			}
		}
	}

	p := PackageSize{Raw: raw, Quantity: 1, Defaulted: true}
	switch {
	case measured != nil:
		p.Quantity, p.Defaulted = *measured, false
	case first != nil:
		p.Quantity, p.Defaulted = *first, false
	}
	haveUnit := true
	switch {
	case measure != nil:
		p.Unit = *measure
	case boxWord != nil:
		p.Unit = *boxWord
	default:
		haveUnit = false
	}

	if !haveUnit {
		if strings.TrimSpace(fallbackUnit) == "" {
			p.Unit = each
		} else {
			u, err := LookupUnit(fallbackUnit)
			if err != nil {
				return PackageSize{}, err
			}
			p.Unit = u
		}
	}
	if p.Quantity <= 0 {
		return PackageSize{}, fmt.Errorf("%w: %q has no positive quantity", ErrMissingPackageData, raw)
	}
	return p, nil
}

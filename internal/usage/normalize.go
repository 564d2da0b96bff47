package usage

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// POS exports sometimes prefix names with the SKU: "[10004] Single Smash",
// "SKU 10004 - Single Smash", "10004 - Single Smash". A bare number only
// counts as a SKU when a separator follows it; "1000 Island Burger" keeps
// its number.
var skuPrefix = regexp.MustCompile(`^\s*(?:(?:\[[^\]]*\]|\(\s*sku[^)]*\)|sku\s*[#:]?\s*\d[0-9a-z-]*)\s*[-:|.]?|\d{3,}\s*[-:|])\s*`)

// Normalize folds case, applies NFKC, strips a leading SKU, spells "&" as
// "and" and reduces punctuation to single spaces, so "Single-Smash Burger"
// and "[10004] single smash burger" compare equal.
func Normalize(name string) string {
	s := norm.NFKC.String(name)
	s = cases.Fold().String(s)
	s = skuPrefix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", " and ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Single Smash Burger", "single smash burger"},
		{"  single   smash\tburger ", "single smash burger"},
		{"Single-Smash_Burger", "single smash burger"},
		{"[10004] Single Smash Burger", "single smash burger"},
		{"SKU 10004 - Single Smash Burger", "single smash burger"},
		{"sku#12a Single Smash Burger", "single smash burger"},
		{"10004 - Single Smash Burger", "single smash burger"},
		{"ＳＩＮＧＬＥ Smash Burger", "single smash burger"},
		{"Super Single Bacon & Cheese", "super single bacon and cheese"},
		{"Super Single Bacon&Cheese", "super single bacon and cheese"},
		{"1000 Island Burger", "1000 island burger"},
		{"10004 | Single Smash Burger", "single smash burger"},
		{"10004: Single Smash Burger", "single smash burger"},
		{"Kids Meal Set (Burger Fries Drink)", "kids meal set burger fries drink"},
		{"Skull Burger", "skull burger"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

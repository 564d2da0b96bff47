package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRoundTrip(t *testing.T) {
	g, err := Convert(1, "kg", "g")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, g)

	kg, err := Convert(g, "g", "kg")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, kg, 1e-12)

	for _, u := range []string{"oz", "lb", "cup", "tbsp", "tsp", "litre"} {
		there, err := Convert(3.7, u, baseName(unitTable[u].Dim))
		require.NoError(t, err)
		back, err := Convert(there, baseName(unitTable[u].Dim), u)
		require.NoError(t, err)
		assert.InDelta(t, 3.7, back, 1e-9, u)
	}
}

func TestConvertTable(t *testing.T) {
	tests := []struct {
		q        float64
		from, to string
		want     float64
	}{
		{1, "oz", "g", 28.35},
		{1, "lb", "g", 453.6},
		{2, "l", "ml", 2000},
		{1, "Liter", "ml", 1000},
		{1, "cup", "ml", 240},
		{2, "tbsp", "ml", 30},
		{3, "tsp", "tbsp", 1},
		{6, "cans", "each", 6},
		{1, "PCS", "piece", 1},
	}
	for _, tt := range tests {
		got, err := Convert(tt.q, tt.from, tt.to)
		require.NoError(t, err, "%s->%s", tt.from, tt.to)
		assert.InDelta(t, tt.want, got, 1e-9, "%s->%s", tt.from, tt.to)
	}
}

func TestConvertAcrossDimensionsFails(t *testing.T) {
	_, err := Convert(100, "g", "ml")
	assert.ErrorIs(t, err, ErrInvalidUnitConversion)

	_, err = Convert(1, "each", "kg")
	assert.ErrorIs(t, err, ErrInvalidUnitConversion)

	_, err = Convert(1, "furlong", "g")
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

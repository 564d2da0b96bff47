package usage

import (
	"context"
	"testing"

	"shiftcost-backend/internal/database"
	"shiftcost-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProviderFallsBackWhenEmpty(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	def := DefaultCatalogue()
	c, err := NewGormProvider(db, def).Catalogue(context.Background())
	require.NoError(t, err)
	assert.Same(t, def, c)
}

func TestGormProviderReplace(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	ctx := context.Background()
	p := NewGormProvider(db, DefaultCatalogue())

	require.NoError(t, p.Replace(ctx, []Mapping{
		{Name: "House Burger", PattiesPerUnit: 2, RedMeatGramsPerUnit: 200, RollsPerUnit: 1},
	}))
	require.NoError(t, p.Replace(ctx, []Mapping{
		{Name: "Night Burger", PattiesPerUnit: 1, RedMeatGramsPerUnit: 110, RollsPerUnit: 1},
		{Name: "Chicken Wrap", ChickenGramsPerUnit: 100},
	}))

	var n int64
	require.NoError(t, db.Model(&models.ProductMapping{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	c, err := p.Catalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	_, m, ok := c.Resolve("night burger")
	require.True(t, ok)
	assert.Equal(t, 110.0, m.RedMeatGramsPerUnit)
	_, _, ok = c.Resolve("house burger")
	assert.False(t, ok)
}

func TestGormProviderReplaceRejectsDuplicates(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	ctx := context.Background()
	p := NewGormProvider(db, DefaultCatalogue())

	require.NoError(t, p.Replace(ctx, []Mapping{{Name: "House Burger", RollsPerUnit: 1}}))
	err = p.Replace(ctx, []Mapping{{Name: "A"}, {Name: "a"}})
	require.Error(t, err)

	c, err := p.Catalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len(), "a rejected upload leaves the table untouched")
}

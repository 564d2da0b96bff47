package usage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"shiftcost-backend/internal/shiftwindow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() shiftwindow.Window {
	return shiftwindow.Resolve(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), time.UTC)
}

func at(h, m int) time.Time {
	return time.Date(2025, 3, 14, h, m, 0, 0, time.UTC)
}

func TestProjectSingleSmash(t *testing.T) {
	c, err := NewCatalogue([]Mapping{{Name: "Single Smash Burger", PattiesPerUnit: 1, RedMeatGramsPerUnit: 90, RollsPerUnit: 1}})
	require.NoError(t, err)

	p := Project(testWindow(), []LineItem{
		{Name: "Single Smash Burger", Quantity: 3, ReceiptAt: at(19, 0)},
	}, c)

	require.Len(t, p.Products, 1)
	assert.Equal(t, 3.0, p.Products[0].Quantity)
	assert.Equal(t, 3.0, p.Totals.Patties)
	assert.Equal(t, 270.0, p.Totals.RedMeatGrams)
	assert.Equal(t, 3.0, p.Totals.Rolls)
	assert.Equal(t, 3.0, p.Totals.Burgers)
	assert.Empty(t, p.Unmapped)
	assert.Equal(t, "2025-03-14", p.BusinessDate)
}

func TestProjectUnmappedKeepsRawQuantity(t *testing.T) {
	p := Project(testWindow(), []LineItem{
		{Name: "Fries", Quantity: 4, ReceiptAt: at(18, 0)},
		{Name: "Fries ", Quantity: 1, ReceiptAt: at(23, 0)},
		{Name: "Coke", Quantity: 2, ReceiptAt: at(20, 0)},
	}, DefaultCatalogue())

	assert.Empty(t, p.Products)
	assert.Equal(t, map[string]float64{"Fries": 5, "Coke": 2}, p.Unmapped)
	assert.Equal(t, []string{"Coke", "Fries"}, p.UnmappedNames())
	assert.Zero(t, p.Totals.Burgers)
}

func TestProjectFiltersByWindow(t *testing.T) {
	items := []LineItem{
		{Name: "Single Smash Burger", Quantity: 1, ReceiptAt: at(16, 59)},
		{Name: "Single Smash Burger", Quantity: 1, ReceiptAt: at(17, 0)},
		{Name: "Single Smash Burger", Quantity: 1, ReceiptAt: at(23, 59)},
		{Name: "Single Smash Burger", Quantity: 1, ReceiptAt: time.Date(2025, 3, 15, 2, 59, 0, 0, time.UTC)},
		{Name: "Single Smash Burger", Quantity: 1, ReceiptAt: time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC)},
		{Name: "Mystery", Quantity: 9, ReceiptAt: at(10, 0)},
	}
	p := Project(testWindow(), items, DefaultCatalogue())

	assert.Equal(t, 3.0, p.Totals.Burgers)
	assert.Equal(t, 285.0, p.Totals.RedMeatGrams)
	assert.Empty(t, p.Unmapped, "out-of-window names are not reported")
}

func TestProjectGroupsRawNamesPerProduct(t *testing.T) {
	p := Project(testWindow(), []LineItem{
		{Name: "[10004] Single Smash Burger", Quantity: 1, ReceiptAt: at(18, 0)},
		{Name: "Single Smash Burger", Quantity: 2, ReceiptAt: at(19, 0)},
		{Name: "Chicken Fillet Burger", Quantity: 1, ReceiptAt: at(20, 0)},
		{Name: "Triple Smash Burger", Quantity: 0, ReceiptAt: at(20, 0)},
	}, DefaultCatalogue())

	require.Len(t, p.Products, 2)
	assert.Equal(t, "chicken fillet burger", p.Products[0].NormalizedName)
	assert.Equal(t, "single smash burger", p.Products[1].NormalizedName)
	assert.Equal(t, []string{"Single Smash Burger", "[10004] Single Smash Burger"}, p.Products[1].RawNames)
	assert.Equal(t, 120.0, p.Totals.ChickenGrams)
	assert.Equal(t, 4.0, p.Totals.Rolls)
	assert.Equal(t, 3.0, p.Totals.Patties)
}

func TestWriteCSV(t *testing.T) {
	p := Project(testWindow(), []LineItem{
		{Name: "Single Smash Burger", Quantity: 2, ReceiptAt: at(18, 0)},
		{Name: "Fries", Quantity: 3, ReceiptAt: at(18, 0)},
	}, DefaultCatalogue())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, p))
	want := "product,qty,patties,red_meat_grams,chicken_grams,rolls\n" +
		"single smash burger,2,2,190,0,2\n" +
		"TOTAL,2,2,190,0,2\n" +
		"UNMAPPED: Fries,3,,,,\n"
	assert.Equal(t, want, buf.String())
}

type fakeSource struct {
	items []LineItem
	err   error
}

func (f fakeSource) LineItems(context.Context, shiftwindow.Window) ([]LineItem, error) {
	return f.items, f.err
}

func TestProjectDate(t *testing.T) {
	src := fakeSource{items: []LineItem{{Name: "Ultimate Double", Quantity: 2, ReceiptAt: at(21, 0)}}}
	p, err := ProjectDate(context.Background(), src, StaticProvider{C: DefaultCatalogue()}, at(0, 0), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.Totals.Patties)

	_, err = ProjectDate(context.Background(), fakeSource{err: errors.New("pos down")}, StaticProvider{C: DefaultCatalogue()}, at(0, 0), time.UTC)
	assert.Error(t, err)
}

package forms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/database"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/tally"
	"shiftcost-backend/internal/usage"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixedSales struct{ t usage.Totals }

func (f fixedSales) UsageTotals(context.Context, time.Time) (usage.Totals, error) {
	return f.t, nil
}

func formsApp(t *testing.T) (*fiber.App, *gorm.DB, *ledger.Ledger) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	src := ledger.NewGormSources(db)
	l := ledger.New(ledger.Deps{
		Store:      ledger.NewGormStore(db),
		Receipts:   fixedSales{usage.Totals{Rolls: 30, RedMeatGrams: 2700}},
		Purchases:  src,
		DrinkSales: src,
		DrinkKinds: src,
	})
	s := NewStore(db)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(2))
		c.Locals(auth.CtxUserNameKey, "Mai")
		c.Locals(auth.CtxUserRoleKey, models.RoleManager)
		return c.Next()
	})
	app.Put("/forms/:date", SaveFormHandler(s, l, zap.NewNop()))
	app.Get("/forms/:date", GetFormHandler(s))
	app.Put("/reviews/:date", SaveReviewHandler(s))
	return app, db, l
}

func call(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

const formBody = `{
	"cash_sales": "1000", "qr_sales": "800", "grab_sales": "200",
	"shopping_total": "150", "wage_total": "300",
	"rolls_end": 18, "meat_end_grams": 2300,
	"drinks": [{"brand": "Coke", "sold": 6, "closing": 18}]
}`

func TestSaveFormRecordsLedgerActuals(t *testing.T) {
	app, db, l := formsApp(t)
	march14 := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]models.Purchase{
		{BusinessDate: march14, ItemKind: "rolls", Quantity: 48},
		{BusinessDate: march14, ItemKind: "meat", Quantity: 5000},
		{BusinessDate: march14, ItemKind: "drink:coke", Quantity: 24},
	}).Error)

	var resp SaveFormResponse
	require.Equal(t, 200, call(t, app, "PUT", "/forms/2025-03-14", formBody, &resp))
	assert.Equal(t, "Mai", resp.Form.CompletedBy)
	assert.True(t, resp.Form.TotalSales.Equal(decimal.NewFromInt(2000)))
	assert.True(t, resp.Form.EstimatedNetBanked.Equal(decimal.NewFromInt(1550)))
	require.Len(t, resp.Ledger, 3)

	byKind := map[ledger.Kind]ledger.Entry{}
	for _, k := range []ledger.Kind{ledger.KindRolls, ledger.KindMeat, "drink:coke"} {
		h, err := l.History(context.Background(), k, 1)
		require.NoError(t, err)
		require.Len(t, h, 1)
		byKind[k] = h[0]
	}
	for k, e := range byKind {
		assert.Equal(t, ledger.StatusOK, e.Status, k)
		require.NotNil(t, e.Actual, k)
	}
	assert.Equal(t, 2300.0, *byKind[ledger.KindMeat].Actual)
	assert.Equal(t, 6.0, byKind["drink:coke"].Sold)

	var got Form
	require.Equal(t, 200, call(t, app, "GET", "/forms/2025-03-14", "", &got))
	require.Len(t, got.Drinks, 1)
	assert.Equal(t, "coke", got.Drinks[0].Brand)
	assert.Equal(t, 6.0, *got.Drinks[0].Sold)

	// saving again updates in place
	require.Equal(t, 200, call(t, app, "PUT", "/forms/2025-03-14", formBody, nil))
	var n int64
	db.Model(&models.ShiftForm{}).Count(&n)
	assert.Equal(t, int64(1), n)
	db.Model(&models.StockCount{}).Count(&n)
	assert.Equal(t, int64(3), n)
}

func TestFormValidation(t *testing.T) {
	app, _, _ := formsApp(t)
	assert.Equal(t, 400, call(t, app, "PUT", "/forms/2025-13-01", `{}`, nil))
	assert.Equal(t, 400, call(t, app, "PUT", "/forms/2025-03-14", `{"rolls_end": -1}`, nil))
	assert.Equal(t, 400, call(t, app, "PUT", "/forms/2025-03-14", `{"drinks": [{"brand": " ", "sold": 1}]}`, nil))
	assert.Equal(t, 404, call(t, app, "GET", "/forms/2025-03-14", "", nil))
}

func TestReviewFeedsReconciliation(t *testing.T) {
	app, db, _ := formsApp(t)
	require.Equal(t, 200, call(t, app, "PUT", "/forms/2025-03-14", formBody, nil))
	require.NoError(t, db.Create(&models.PosShift{
		BusinessDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		ShiftTotals: reconcile.DeriveBanking(models.ShiftTotals{
			CashSales: decimal.NewFromInt(1000), QRSales: decimal.NewFromInt(800), GrabSales: decimal.NewFromInt(200),
			ShoppingTotal: decimal.NewFromInt(150), WageTotal: decimal.NewFromInt(300),
		}),
	}).Error)

	var r models.ManagerReview
	require.Equal(t, 200, call(t, app, "PUT", "/reviews/2025-03-14", `{"actual_banked": "1549.995", "note": "ok"}`, &r))
	assert.Equal(t, uint(2), r.ReviewedBy)
	require.Equal(t, 200, call(t, app, "PUT", "/reviews/2025-03-14", `{"actual_banked": "1549.995", "note": "rechecked"}`, &r))
	assert.Equal(t, "rechecked", r.Note)
	assert.Equal(t, 400, call(t, app, "PUT", "/reviews/2025-03-14", `{"actual_banked": "-5"}`, nil))

	cmp, err := reconcile.NewStore(db).Compare(context.Background(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, reconcile.AvailabilityOK, cmp.Availability)
	assert.Zero(t, cmp.Mismatches)
	last := cmp.Rows[len(cmp.Rows)-1]
	assert.Equal(t, "Actual Banked", last.Label)
	assert.True(t, last.Matched)
}

// flakyLedger fails every call for one kind.
type flakyLedger struct {
	*ledger.Ledger
	down ledger.Kind
}

func (f flakyLedger) Refresh(ctx context.Context, date time.Time, kind ledger.Kind) (ledger.Entry, error) {
	if kind == f.down {
		return ledger.Entry{}, errors.New("ledger store unavailable")
	}
	return f.Ledger.Refresh(ctx, date, kind)
}

func TestSaveFormReportsLedgerFailures(t *testing.T) {
	_, db, l := formsApp(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(2))
		c.Locals(auth.CtxUserNameKey, "Mai")
		c.Locals(auth.CtxUserRoleKey, models.RoleManager)
		return c.Next()
	})
	app.Put("/forms/:date", SaveFormHandler(NewStore(db), flakyLedger{Ledger: l, down: ledger.KindMeat}, zap.NewNop()))

	var resp struct {
		Ledger []struct {
			Kind ledger.Kind `json:"item_kind"`
		} `json:"ledger"`
		LedgerErrors []tally.LedgerError `json:"ledger_errors"`
	}
	require.Equal(t, fiber.StatusOK, call(t, app, "PUT", "/forms/2025-03-14", formBody, &resp))

	require.Len(t, resp.LedgerErrors, 1)
	assert.Equal(t, ledger.KindMeat, resp.LedgerErrors[0].Kind)
	assert.NotEmpty(t, resp.LedgerErrors[0].Error)
	var kinds []ledger.Kind
	for _, e := range resp.Ledger {
		kinds = append(kinds, e.Kind)
	}
	assert.ElementsMatch(t, []ledger.Kind{ledger.KindRolls, ledger.DrinkKind("coke")}, kinds)

	var count models.StockCount
	require.NoError(t, db.Where("item_kind = ?", "meat").First(&count).Error, "the count is stored anyway")
}

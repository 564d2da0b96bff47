package tally

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/database"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/usage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noSales struct{}

func (noSales) UsageTotals(context.Context, time.Time) (usage.Totals, error) {
	return usage.Totals{}, nil
}

var march14 = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func tallyApp(t *testing.T) (*fiber.App, *gorm.DB, *ledger.Ledger) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	src := ledger.NewGormSources(db)
	l := ledger.New(ledger.Deps{Store: ledger.NewGormStore(db), Receipts: noSales{}, Purchases: src, DrinkSales: src, DrinkKinds: src})
	s := NewStore(db)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(2))
		c.Locals(auth.CtxUserNameKey, "Mai")
		c.Locals(auth.CtxUserRoleKey, models.RoleManager)
		return c.Next()
	})
	app.Post("/purchases", CreatePurchaseHandler(s, l, zap.NewNop()))
	app.Get("/purchases", ListPurchasesHandler(s))
	app.Post("/stock-counts", SaveStockCountHandler(s, l, zap.NewNop()))
	app.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler(db, AfterUndo(s, l), zap.NewNop()))
	return app, db, l
}

func post(t *testing.T, app *fiber.App, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func entry(t *testing.T, l *ledger.Ledger, kind ledger.Kind) ledger.Entry {
	t.Helper()
	h, err := l.History(context.Background(), kind, 1)
	require.NoError(t, err)
	require.Len(t, h, 1)
	return h[0]
}

func TestPurchaseFeedsLedger(t *testing.T) {
	app, db, l := tallyApp(t)

	var resp struct {
		Purchase models.Purchase `json:"purchase"`
		Ledger   map[string]any  `json:"ledger"`
	}
	status := post(t, app, "/purchases", `{"business_date": "2025-03-14", "item_kind": "Rolls", "quantity": 40, "supplier": " Bakery "}`, &resp)
	require.Equal(t, 201, status)
	assert.Equal(t, "rolls", resp.Purchase.ItemKind)
	assert.Equal(t, "Bakery", resp.Purchase.Supplier)
	assert.Equal(t, 40.0, resp.Ledger["purchased"])

	status = post(t, app, "/purchases", `{"business_date": "2025-03-14", "item_kind": "rolls", "quantity": 10}`, nil)
	require.Equal(t, 201, status)
	assert.Equal(t, 50.0, entry(t, l, ledger.KindRolls).Purchased)

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ?", audit.EntityPurchase).Find(&logs).Error)
	assert.Len(t, logs, 2)

	req := httptest.NewRequest("GET", "/purchases?date=2025-03-14", nil)
	r, err := app.Test(req)
	require.NoError(t, err)
	var list []models.Purchase
	require.NoError(t, json.NewDecoder(r.Body).Decode(&list))
	assert.Len(t, list, 2)
}

func TestPurchaseValidation(t *testing.T) {
	app, _, _ := tallyApp(t)
	for _, body := range []string{
		`{"business_date": "2025-03-14", "item_kind": "buns", "quantity": 1}`,
		`{"business_date": "14/03/2025", "item_kind": "rolls", "quantity": 1}`,
		`{"business_date": "2025-03-14", "item_kind": "rolls", "quantity": 0}`,
	} {
		assert.Equal(t, 400, post(t, app, "/purchases", body, nil), body)
	}
}

func TestStockCountRecordsActual(t *testing.T) {
	app, _, l := tallyApp(t)
	require.Equal(t, 201, post(t, app, "/purchases", `{"business_date": "2025-03-14", "item_kind": "drink:coke", "quantity": 24}`, nil))

	var resp StockCountResponse
	status := post(t, app, "/stock-counts", `{"business_date": "2025-03-14", "item_kind": "drink:Coke", "sold": 5}`, &resp)
	require.Equal(t, 200, status)
	assert.Equal(t, 19.0, entry(t, l, "drink:coke").Expected())
	assert.Equal(t, ledger.StatusPending, entry(t, l, "drink:coke").Status)

	status = post(t, app, "/stock-counts", `{"business_date": "2025-03-14", "item_kind": "drink:coke", "closing": 18}`, &resp)
	require.Equal(t, 200, status)
	require.NotNil(t, resp.Count.Sold, "sold survives a closing-only count")
	assert.Equal(t, 5.0, *resp.Count.Sold)
	e := entry(t, l, "drink:coke")
	assert.Equal(t, ledger.StatusAlert, e.Status)
	assert.Equal(t, -1.0, *e.Variance())

	assert.Equal(t, 400, post(t, app, "/stock-counts", `{"business_date": "2025-03-14", "item_kind": "rolls", "sold": 3}`, nil))
	assert.Equal(t, 400, post(t, app, "/stock-counts", `{"business_date": "2025-03-14", "item_kind": "rolls", "closing": -3}`, nil))
	assert.Equal(t, 400, post(t, app, "/stock-counts", `{"business_date": "2025-03-14", "item_kind": "rolls"}`, nil))
}

func TestUndoRefreshesLedger(t *testing.T) {
	app, db, l := tallyApp(t)
	require.Equal(t, 201, post(t, app, "/purchases", `{"business_date": "2025-03-14", "item_kind": "rolls", "quantity": 40}`, nil))
	require.Equal(t, 200, post(t, app, "/stock-counts", `{"business_date": "2025-03-14", "item_kind": "rolls", "closing": 40}`, nil))
	assert.Equal(t, ledger.StatusOK, entry(t, l, ledger.KindRolls).Status)

	var purchaseLog, countLog models.AuditLog
	require.NoError(t, db.Where("entity_type = ?", audit.EntityPurchase).First(&purchaseLog).Error)
	require.NoError(t, db.Where("entity_type = ?", audit.EntityStockCount).First(&countLog).Error)

	require.Equal(t, 200, post(t, app, "/audit-logs/"+itoa(purchaseLog.ID)+"/undo", "", nil))
	e := entry(t, l, ledger.KindRolls)
	assert.Zero(t, e.Purchased)
	assert.Equal(t, ledger.StatusAlert, e.Status, "the count now exceeds what was bought")

	require.Equal(t, 200, post(t, app, "/audit-logs/"+itoa(countLog.ID)+"/undo", "", nil))
	e = entry(t, l, ledger.KindRolls)
	assert.Nil(t, e.Actual)
	assert.Equal(t, ledger.StatusPending, e.Status)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type downLedger struct{ Ledger }

func (downLedger) Refresh(context.Context, time.Time, ledger.Kind) (ledger.Entry, error) {
	return ledger.Entry{}, errors.New("ledger store unavailable")
}

func TestPurchaseReportsLedgerFailure(t *testing.T) {
	_, db, l := tallyApp(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(2))
		c.Locals(auth.CtxUserNameKey, "Mai")
		c.Locals(auth.CtxUserRoleKey, models.RoleManager)
		return c.Next()
	})
	app.Post("/purchases", CreatePurchaseHandler(NewStore(db), downLedger{l}, zap.NewNop()))

	var resp struct {
		Ledger      map[string]any `json:"ledger"`
		LedgerError *LedgerError   `json:"ledger_error"`
	}
	require.Equal(t, 201, post(t, app, "/purchases", `{"business_date": "2025-03-14", "item_kind": "meat", "quantity": 5000}`, &resp))
	assert.Nil(t, resp.Ledger)
	require.NotNil(t, resp.LedgerError)
	assert.Equal(t, ledger.KindMeat, resp.LedgerError.Kind)

	var n int64
	db.Model(&models.Purchase{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

package ledger

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/database"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/usage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ledgerApp(t *testing.T) (*fiber.App, *gorm.DB, *fakeSources) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	l, _, src, _ := newTestLedger()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(2))
		c.Locals(auth.CtxUserNameKey, "Mai")
		c.Locals(auth.CtxUserRoleKey, models.RoleManager)
		return c.Next()
	})
	app.Post("/ledger/rebuild", RebuildHandler(l, nil))
	app.Get("/ledger/export.xlsx", ExportXLSXHandler(l))
	app.Post("/ledger/:date/:kind/refresh", RefreshHandler(l))
	app.Put("/ledger/:date/:kind/actual", RecordActualHandler(l, db))
	app.Get("/ledger/:kind/history", HistoryHandler(l))
	app.Get("/ledger/:kind/export.csv", ExportCSVHandler(l))
	return app, db, src
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func TestRefreshAndRecordActualHandlers(t *testing.T) {
	app, db, src := ledgerApp(t)
	coke := DrinkKind("coke")
	src.purchased[lockKey(date(14), coke)] = 24
	src.drinkSold[lockKey(date(14), coke)] = 6

	status, body := call(t, app, "POST", "/ledger/2025-03-14/drink:coke/refresh", "")
	require.Equal(t, 200, status, string(body))
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "drink:coke", got["item_kind"])
	assert.Equal(t, 18.0, got["expected_closing"])
	assert.Nil(t, got["variance"])
	assert.Equal(t, "PENDING", got["status"])

	status, body = call(t, app, "PUT", "/ledger/2025-03-14/drink%3Acoke/actual", `{"actual": 17}`)
	require.Equal(t, 200, status, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, -1.0, got["variance"])
	assert.Equal(t, "ALERT", got["status"])

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "ledger_entry", logs[0].EntityType)
	assert.Equal(t, "Mai", logs[0].UserName)
}

func TestLedgerHandlerValidation(t *testing.T) {
	app, _, _ := ledgerApp(t)

	cases := []struct{ method, path, body string }{
		{"POST", "/ledger/14-03-2025/rolls/refresh", ""},
		{"POST", "/ledger/2025-03-14/buns/refresh", ""},
		{"PUT", "/ledger/2025-03-14/rolls/actual", `{}`},
		{"PUT", "/ledger/2025-03-14/rolls/actual", `{"actual": -2}`},
		{"GET", "/ledger/rolls/history?days=0", ""},
		{"GET", "/ledger/rolls/history?days=1000", ""},
		{"POST", "/ledger/rebuild?from=yesterday", ""},
	}
	for _, tc := range cases {
		status, body := call(t, app, tc.method, tc.path, tc.body)
		assert.Equal(t, 400, status, "%s %s: %s", tc.method, tc.path, body)
	}
}

func TestHistoryAndExportHandlers(t *testing.T) {
	app, _, src := ledgerApp(t)
	src.usage["2025-03-13"] = usage.Totals{Rolls: 3}

	status, body := call(t, app, "POST", "/ledger/rebuild?from=2025-03-12&days=3", "")
	require.Equal(t, 200, status, string(body))
	var report RebuildReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, int64(6), report.Entries)

	status, body = call(t, app, "GET", "/ledger/rolls/history?days=2", "")
	require.Equal(t, 200, status)
	var hist []map[string]any
	require.NoError(t, json.Unmarshal(body, &hist))
	require.Len(t, hist, 2)
	assert.Equal(t, "2025-03-14", hist[0]["business_date"])
	assert.Equal(t, -3.0, hist[0]["opening"])

	status, body = call(t, app, "GET", "/ledger/rolls/export.csv", "")
	require.Equal(t, 200, status)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 4)

	req := httptest.NewRequest("GET", "/ledger/export.xlsx?days=7", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(b, []byte("PK")), "xlsx is a zip archive")
}

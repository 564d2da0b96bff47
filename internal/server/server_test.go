package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"shiftcost-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServices(t *testing.T) *Services {
	t.Helper()
	cfg := &config.Config{
		AppEnv:         "test",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "file:" + t.Name() + "?mode=memory&cache=shared",
		JWTSecret:      strings.Repeat("s", 32),
		CORSOrigins:    "http://localhost:5173",
		VenueTimezone:  "Asia/Bangkok",
	}
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type client struct {
	t     *testing.T
	s     *Services
	token string
}

func (c *client) do(method, path, body string) (int, []byte) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.s.App().Test(req, -1)
	require.NoError(c.t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, b
}

func TestShiftFlow(t *testing.T) {
	c := &client{t: t, s: testServices(t)}

	status, body := c.do("GET", "/api/usage?date=2025-03-14", "")
	require.Equal(t, 401, status, string(body))

	status, body = c.do("POST", "/api/auth/register-owner", `{"name": "Cam", "email": "cam@example.com", "password": "smashburger"}`)
	require.Equal(t, 201, status, string(body))
	status, body = c.do("POST", "/api/auth/login", `{"email": "cam@example.com", "password": "smashburger"}`)
	require.Equal(t, 200, status, string(body))
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	c.token = login.Token

	status, body = c.do("POST", "/api/purchases", `{"business_date": "2025-03-14", "item_kind": "rolls", "quantity": 40}`)
	require.Equal(t, 201, status, string(body))

	status, body = c.do("POST", "/api/pos/receipts", `[
		{"id": "R1", "receipt_at": "2025-03-14T18:00:00+07:00", "payment_method": "cash", "amount": "700",
		 "lines": [{"item": "Single Smash Burger", "qty": 3}, {"item": "Fries", "qty": 1}]}
	]`)
	require.Equal(t, 201, status, string(body))

	status, body = c.do("GET", "/api/usage?date=2025-03-14", "")
	require.Equal(t, 200, status, string(body))
	var proj struct {
		Totals struct {
			Patties      float64 `json:"patties"`
			RedMeatGrams float64 `json:"red_meat_grams"`
			Rolls        float64 `json:"rolls"`
		} `json:"totals"`
		Unmapped map[string]float64 `json:"unmapped"`
	}
	require.NoError(t, json.Unmarshal(body, &proj))
	assert.Equal(t, 3.0, proj.Totals.Patties)
	assert.Equal(t, 285.0, proj.Totals.RedMeatGrams)
	assert.Equal(t, 1.0, proj.Unmapped["Fries"])

	status, body = c.do("PUT", "/api/forms/2025-03-14", `{"cash_sales": "700", "rolls_end": 37}`)
	require.Equal(t, 200, status, string(body))

	status, body = c.do("GET", "/api/ledger/rolls/history?days=1", "")
	require.Equal(t, 200, status, string(body))
	var hist []map[string]any
	require.NoError(t, json.Unmarshal(body, &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, 37.0, hist[0]["expected_closing"])
	assert.Equal(t, "OK", hist[0]["status"])

	status, body = c.do("POST", "/api/pos/shifts/2025-03-14/derive", "")
	require.Equal(t, 200, status, string(body))
	status, body = c.do("GET", "/api/reconciliation/2025-03-14", "")
	require.Equal(t, 200, status, string(body))
	var cmp struct {
		Availability string `json:"availability"`
		Mismatches   int    `json:"mismatches"`
	}
	require.NoError(t, json.Unmarshal(body, &cmp))
	assert.Equal(t, "ok", cmp.Availability)
	assert.Zero(t, cmp.Mismatches)

	status, _ = c.do("GET", "/api/shift-window?date=2025-03-14", "")
	assert.Equal(t, 200, status)
}

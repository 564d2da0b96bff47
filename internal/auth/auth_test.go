package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"shiftcost-backend/internal/database"
	"shiftcost-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/auth/register-owner", RegisterOwnerHandler(db))
	app.Post("/auth/login", LoginHandler(db, testSecret))
	protected := app.Group("", JWTMiddleware(testSecret))
	protected.Get("/auth/me", MeHandler(db))
	protected.Post("/users/managers", RequireRole(models.RoleOwner), CreateManagerHandler(db))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, token string, body any) (int, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, body := postJSON(t, app, "/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, 200, status, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Token
}

func TestRegisterOwnerOnlyOnce(t *testing.T) {
	app := testApp(t)

	status, _ := postJSON(t, app, "/auth/register-owner", "", RegisterRequest{Name: "Cam", Email: "Owner@Example.com ", Password: "secret-pass"})
	assert.Equal(t, 201, status)

	status, _ = postJSON(t, app, "/auth/register-owner", "", RegisterRequest{Name: "Other", Email: "other@example.com", Password: "secret-pass"})
	assert.Equal(t, 403, status)
}

func TestLoginAndRoles(t *testing.T) {
	app := testApp(t)
	status, _ := postJSON(t, app, "/auth/register-owner", "", RegisterRequest{Name: "Cam", Email: "owner@example.com", Password: "secret-pass"})
	require.Equal(t, 201, status)

	status, _ = postJSON(t, app, "/auth/login", "", LoginRequest{Email: "owner@example.com", Password: "wrong-pass"})
	assert.Equal(t, 401, status)

	ownerToken := login(t, app, "owner@example.com", "secret-pass")

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var me UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, models.RoleOwner, me.Role)
	assert.Equal(t, "Cam", me.Name)

	status, _ = postJSON(t, app, "/users/managers", ownerToken, RegisterRequest{Name: "Mo", Email: "mo@example.com", Password: "manager-pass"})
	require.Equal(t, 201, status)

	managerToken := login(t, app, "mo@example.com", "manager-pass")
	status, _ = postJSON(t, app, "/users/managers", managerToken, RegisterRequest{Name: "X", Email: "x@example.com", Password: "manager-pass"})
	assert.Equal(t, 403, status)
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	app := testApp(t)
	for _, h := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest("GET", "/auth/me", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode, h)
	}

	forged, err := GenerateToken("another-secret-another-secret-xx", &models.User{ID: 1, Role: models.RoleOwner})
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stock-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "stock-api-test"
	testExpMin    = 60
)

// guardedApp expone GET /guarded detrás de AuthMiddleware + RequireRole(allowed...).
func guardedApp(allowed ...string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Get("/guarded",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func signed(t *testing.T, secret, role string, expMinutes int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, testUserID, role, testIssuer, expMinutes)
	require.NoError(t, err)
	return tok
}

func TestAuthYRoles(t *testing.T) {
	cases := []struct {
		name     string
		allowed  []string
		header   func(t *testing.T) string
		wantCode int
		wantBody string
	}{
		{
			name:     "admin en ruta de admin",
			allowed:  []string{"admin"},
			header:   func(t *testing.T) string { return "Bearer " + signed(t, testJWTSecret, "admin", testExpMin) },
			wantCode: http.StatusOK,
		},
		{
			name:     "bodeguero en ruta admin o bodeguero",
			allowed:  []string{"admin", "bodeguero"},
			header:   func(t *testing.T) string { return "Bearer " + signed(t, testJWTSecret, "bodeguero", testExpMin) },
			wantCode: http.StatusOK,
		},
		{
			name:     "esquema en minúsculas",
			allowed:  []string{"vendedor"},
			header:   func(t *testing.T) string { return "bearer " + signed(t, testJWTSecret, "vendedor", testExpMin) },
			wantCode: http.StatusOK,
		},
		{
			name:     "vendedor en ruta de admin",
			allowed:  []string{"admin"},
			header:   func(t *testing.T) string { return "Bearer " + signed(t, testJWTSecret, "vendedor", testExpMin) },
			wantCode: http.StatusForbidden,
			wantBody: "FORBIDDEN",
		},
		{
			name:     "token sin rol",
			allowed:  []string{"admin"},
			header:   func(t *testing.T) string { return "Bearer " + signed(t, testJWTSecret, "", testExpMin) },
			wantCode: http.StatusUnauthorized,
			wantBody: "MISSING_ROLE",
		},
		{
			name:     "sin header",
			allowed:  []string{"admin"},
			header:   func(*testing.T) string { return "" },
			wantCode: http.StatusUnauthorized,
			wantBody: "MISSING_TOKEN",
		},
		{
			name:     "esquema Basic",
			allowed:  []string{"admin"},
			header:   func(*testing.T) string { return "Basic dXNlcjpwYXNz" },
			wantCode: http.StatusUnauthorized,
			wantBody: "INVALID_TOKEN",
		},
		{
			name:     "token malformado",
			allowed:  []string{"admin"},
			header:   func(*testing.T) string { return "Bearer token.invalido.aqui" },
			wantCode: http.StatusUnauthorized,
			wantBody: "INVALID_TOKEN",
		},
		{
			name:     "token expirado",
			allowed:  []string{"admin"},
			header:   func(t *testing.T) string { return "Bearer " + signed(t, testJWTSecret, "admin", -1) },
			wantCode: http.StatusUnauthorized,
			wantBody: "INVALID_TOKEN",
		},
		{
			name:     "firmado con otro secret",
			allowed:  []string{"admin"},
			header:   func(t *testing.T) string { return "Bearer " + signed(t, "otro-secret", "admin", testExpMin) },
			wantCode: http.StatusUnauthorized,
			wantBody: "INVALID_TOKEN",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if h := tc.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			resp, err := guardedApp(tc.allowed...).Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.wantCode, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, body["code"])
				return
			}
			assert.Equal(t, testUserID, body["user_id"])
		})
	}
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/application/pricing"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-api/internal/infrastructure/metrics"
	"github.com/jhoicas/stock-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stock-api/internal/interfaces/http"
)

const testPassword = "secreto-123"

type apiFixture struct {
	app    *fiber.App
	authUC *auth.AuthUseCase
}

func newAPI(t *testing.T, loginLimit int) *apiFixture {
	t.Helper()
	store := memory.New()
	log := zerolog.Nop()
	m := metrics.New("stock_api_test")

	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})
	priceUC := pricing.NewPriceUseCase(store.Prices(), store.Products(), nil, log)
	ledgerUC := ledger.NewStockLedgerUseCase(store, store.Products(), store.Suppliers(), store.StockSummaries(),
		ledger.RetryConfig{MaxAttempts: 3, Backoff: time.Millisecond}, m, log)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:          authUC,
		UserUC:          usecase.NewUserUseCase(store.Users()),
		ProductUC:       usecase.NewProductUseCase(store.Products(), store.StockSummaries(), priceUC),
		SupplierUC:      usecase.NewSupplierUseCase(store.Suppliers()),
		MovementUC:      usecase.NewMovementUseCase(store.Purchases(), store.Sales()),
		StockUC:         usecase.NewStockUseCase(store.StockSummaries(), store.Products(), priceUC, pdf.NewStockReportGenerator("Inventario")),
		LedgerUC:        ledgerUC,
		PriceUC:         priceUC,
		Metrics:         m,
		ServiceName:     "stock-api-test",
		JWTSecret:       testJWTSecret,
		LoginRateLimit:  loginLimit,
		LoginRateWindow: time.Minute,
	})

	for _, role := range []string{entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor} {
		_, err := authUC.CreateUser(context.Background(), dto.CreateUserRequest{
			Email: role + "@stock.test", Password: testPassword, Name: role, Role: role,
		})
		require.NoError(t, err)
	}
	return &apiFixture{app: app, authUC: authUC}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *apiFixture) login(t *testing.T, role string) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: role + "@stock.test", Password: testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	f := newAPI(t, 0)

	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@stock.test", Password: "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "UNAUTHORIZED")

	resp, _ = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nadie@stock.test", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "email desconocido responde igual que password incorrecto")

	resp, body = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "no-es-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestLogin_LimitePorIP(t *testing.T) {
	f := newAPI(t, 2)
	bad := dto.LoginRequest{Email: "admin@stock.test", Password: "incorrecta"}

	for i := 0; i < 2; i++ {
		resp, _ := f.do(t, http.MethodPost, "/api/auth/login", "", bad)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "", bad)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), "TOO_MANY_REQUESTS")
}

func TestMe_DevuelveUsuarioDelToken(t *testing.T) {
	f := newAPI(t, 0)
	token := f.login(t, entity.RoleVendedor)

	resp, body := f.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	me := decode[dto.UserResponse](t, body)
	assert.Equal(t, "vendedor@stock.test", me.Email)
	assert.Equal(t, entity.RoleVendedor, me.Role)
}

func TestFlujoCompraVenta(t *testing.T) {
	f := newAPI(t, 0)
	bodeguero := f.login(t, entity.RoleBodeguero)
	vendedor := f.login(t, entity.RoleVendedor)

	resp, body := f.do(t, http.MethodPost, "/api/products", bodeguero, dto.CreateProductRequest{Name: "Yogurt", UnitDescription: "unidad"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	product := decode[dto.ProductResponse](t, body)

	resp, body = f.do(t, http.MethodPost, "/api/suppliers", bodeguero, dto.CreateSupplierRequest{Name: "Lácteos SA"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	supplier := decode[dto.SupplierResponse](t, body)

	exp := "2030-05-01"
	resp, body = f.do(t, http.MethodPost, "/api/purchases", bodeguero, map[string]any{
		"product_id": product.ID, "supplier_id": supplier.ID, "quantity": 10, "unit_cost": "2500.50", "expiration_date": exp,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	purchase := decode[dto.PurchaseResult](t, body)
	assert.Equal(t, int64(10), purchase.Stock.AvailableQuantity)
	require.NotNil(t, purchase.Stock.NextToExpire)
	assert.Equal(t, exp, *purchase.Stock.NextToExpire)

	resp, body = f.do(t, http.MethodPost, "/api/sales", vendedor, map[string]any{"product_id": product.ID, "quantity": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sale := decode[dto.SaleResult](t, body)
	assert.Equal(t, int64(6), sale.Stock.AvailableQuantity)

	resp, body = f.do(t, http.MethodPost, "/api/sales", vendedor, map[string]any{"product_id": product.ID, "quantity": 7})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_STOCK")

	resp, body = f.do(t, http.MethodGet, "/api/products/"+product.ID+"/stock", vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(6), decode[dto.StockSummaryResponse](t, body).AvailableQuantity, "la venta rechazada no deja rastro")

	resp, body = f.do(t, http.MethodDelete, "/api/sales/"+sale.Sale.ID, vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(10), decode[dto.StockSummaryResponse](t, body).AvailableQuantity)

	resp, body = f.do(t, http.MethodGet, "/api/purchases?product_id="+product.ID, vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[[]dto.PurchaseResponse](t, body), 1)

	resp, _ = f.do(t, http.MethodDelete, "/api/products/"+product.ID, bodeguero, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "producto con movimientos no se borra")
}

func TestCompra_Validacion(t *testing.T) {
	f := newAPI(t, 0)
	token := f.login(t, entity.RoleAdmin)

	resp, body := f.do(t, http.MethodPost, "/api/purchases", token, map[string]any{"product_id": "p", "supplier_id": "s", "quantity": 0, "unit_cost": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "quantity")

	req := httptest.NewRequest(http.MethodPost, "/api/purchases", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/purchases/no-existe", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPrecios_VigenteEHistorial(t *testing.T) {
	f := newAPI(t, 0)
	admin := f.login(t, entity.RoleAdmin)
	vendedor := f.login(t, entity.RoleVendedor)

	resp, body := f.do(t, http.MethodPost, "/api/products", admin, dto.CreateProductRequest{Name: "Queso"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	product := decode[dto.ProductResponse](t, body)

	resp, body = f.do(t, http.MethodGet, "/api/products/"+product.ID+"/prices/active", vendedor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NO_ACTIVE_PRICE")

	resp, _ = f.do(t, http.MethodPost, "/api/products/"+product.ID+"/prices", vendedor, map[string]any{"price": "1000"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin gestiona precios")

	for _, p := range []map[string]any{
		{"price": "1000", "effective_at": "2024-01-01"},
		{"price": "1200", "effective_at": "2025-01-01"},
		{"price": "9999", "effective_at": "2099-01-01"},
	} {
		resp, body = f.do(t, http.MethodPost, "/api/products/"+product.ID+"/prices", admin, p)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body = f.do(t, http.MethodGet, "/api/products/"+product.ID+"/prices/active?as_of=2024-06-01", vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "1000", decode[dto.PriceResponse](t, body).Price.String())

	resp, body = f.do(t, http.MethodGet, "/api/products/"+product.ID+"/prices", vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	rows := decode[[]dto.PriceResponse](t, body)
	require.Len(t, rows, 3)
	assert.Equal(t, "9999", rows[0].Price.String(), "más reciente primero")
	assert.Equal(t, "inactive", rows[0].Status)
	assert.Equal(t, "active", rows[1].Status)

	resp, _ = f.do(t, http.MethodGet, "/api/products/"+product.ID+"/prices/active?as_of=ayer", vendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/api/products/"+product.ID, vendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	detail := decode[dto.ProductDetailResponse](t, body)
	require.NotNil(t, detail.ActivePrice)
	assert.Equal(t, "1200", detail.ActivePrice.String())
}

func TestRBAC_PorRecurso(t *testing.T) {
	f := newAPI(t, 0)
	vendedor := f.login(t, entity.RoleVendedor)
	bodeguero := f.login(t, entity.RoleBodeguero)

	resp, _ := f.do(t, http.MethodPost, "/api/products", vendedor, dto.CreateProductRequest{Name: "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/sales", bodeguero, map[string]any{"product_id": "p", "quantity": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/users", bodeguero, dto.CreateUserRequest{Email: "x@y.co", Password: testPassword, Name: "x", Role: entity.RoleVendedor})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/stock", vendedor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "las lecturas están abiertas a cualquier rol")

	resp, _ = f.do(t, http.MethodGet, "/api/stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStock_ReportePDFYVencimientos(t *testing.T) {
	f := newAPI(t, 0)
	token := f.login(t, entity.RoleAdmin)

	resp, body := f.do(t, http.MethodGet, "/api/stock/report.pdf", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, _ = f.do(t, http.MethodGet, "/api/stock/expiring?days=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthYMetrics(t *testing.T) {
	f := newAPI(t, 0)

	resp, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, body = f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "stock_api_test_http_requests_total")
}

func TestRutaInexistente(t *testing.T) {
	f := newAPI(t, 0)
	resp, body := f.do(t, http.MethodGet, "/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "HTTP_")
}

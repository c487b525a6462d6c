package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/application/pricing"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/metrics"
)

// HealthCheck verifica una dependencia (DB, Redis). nil = sana.
type HealthCheck func(ctx context.Context) error

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	ProductUC   *usecase.ProductUseCase
	SupplierUC  *usecase.SupplierUseCase
	MovementUC  *usecase.MovementUseCase
	StockUC     *usecase.StockUseCase
	LedgerUC    *ledger.StockLedgerUseCase
	PriceUC     *pricing.PriceUseCase
	Metrics     *metrics.Metrics // nil = sin /metrics ni middleware
	Checks      map[string]HealthCheck
	ServiceName string
	JWTSecret   string

	LoginRateLimit  int // 0 = sin límite
	LoginRateWindow time.Duration
	LimiterStorage  fiber.Storage // nil = contador en memoria del proceso
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/health", healthHandler(deps))

	api := app.Group("/api")

	// Auth (público, con límite por IP)
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	loginChain := []fiber.Handler{}
	if deps.LoginRateLimit > 0 {
		loginChain = append(loginChain, limiter.New(limiter.Config{
			Max:        deps.LoginRateLimit,
			Expiration: deps.LoginRateWindow,
			Storage:    deps.LimiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "TOO_MANY_REQUESTS", Message: "demasiados intentos, espere e intente de nuevo"})
			},
		}))
	}
	loginChain = append(loginChain, authHandler.Login)
	api.Post("/auth/login", loginChain...)

	// Rutas protegidas (requieren Bearer Token); todas las lecturas para cualquier rol.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(entity.RoleAdmin)
	warehouse := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	seller := RequireRole(entity.RoleAdmin, entity.RoleVendedor)

	// Users
	protected.Post("/users", admin, authHandler.CreateUser)
	protected.Get("/users/me", authHandler.Me)

	// Products
	productHandler := NewProductHandler(deps.ProductUC)
	stockHandler := NewStockHandler(deps.StockUC, deps.LedgerUC)
	priceHandler := NewPriceHandler(deps.PriceUC)
	products := protected.Group("/products")
	products.Get("/", productHandler.List)
	products.Post("/", warehouse, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", warehouse, productHandler.Update)
	products.Delete("/:id", warehouse, productHandler.Delete)
	products.Get("/:id/stock", stockHandler.ProductStock)
	products.Post("/:id/stock/recompute", admin, stockHandler.Recompute)
	products.Get("/:id/prices", priceHandler.List)
	products.Post("/:id/prices", admin, priceHandler.Create)
	products.Get("/:id/prices/active", priceHandler.Active)

	// Prices
	protected.Put("/prices/:id", admin, priceHandler.Update)
	protected.Delete("/prices/:id", admin, priceHandler.Delete)

	// Suppliers
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers := protected.Group("/suppliers")
	suppliers.Get("/", supplierHandler.List)
	suppliers.Post("/", warehouse, supplierHandler.Create)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", warehouse, supplierHandler.Update)
	suppliers.Delete("/:id", warehouse, supplierHandler.Delete)

	// Purchases y sales
	movementHandler := NewMovementHandler(deps.LedgerUC, deps.MovementUC)
	purchases := protected.Group("/purchases")
	purchases.Get("/", movementHandler.ListPurchases)
	purchases.Post("/", warehouse, movementHandler.CreatePurchase)
	purchases.Get("/:id", movementHandler.GetPurchase)
	purchases.Put("/:id", warehouse, movementHandler.UpdatePurchase)
	purchases.Delete("/:id", warehouse, movementHandler.DeletePurchase)

	sales := protected.Group("/sales")
	sales.Get("/", movementHandler.ListSales)
	sales.Post("/", seller, movementHandler.CreateSale)
	sales.Get("/:id", movementHandler.GetSale)
	sales.Put("/:id", seller, movementHandler.UpdateSale)
	sales.Delete("/:id", seller, movementHandler.DeleteSale)

	// Stock
	stock := protected.Group("/stock")
	stock.Get("/", stockHandler.List)
	stock.Get("/expiring", stockHandler.Expiring)
	stock.Get("/report.pdf", stockHandler.Report)
}

// healthHandler responde 200 si todas las dependencias responden, 503 si alguna falla.
func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		status := fiber.StatusOK
		checks := fiber.Map{}
		for name, check := range deps.Checks {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				status = fiber.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		state := "ok"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{"status": state, "service": deps.ServiceName, "checks": checks})
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-api/docs"
	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/application/pricing"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/internal/infrastructure/cache"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-api/internal/interfaces/http"
	"github.com/jhoicas/stock-api/pkg/config"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// backend repositorios + ejecutor de transacciones de un almacenamiento concreto.
type backend struct {
	tx        ledger.TxRunner
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	purchases repository.PurchaseRepository
	sales     repository.SaleRepository
	prices    repository.PriceRepository
	summaries repository.StockSummaryRepository
	users     repository.UserRepository
	checks    map[string]httpRouter.HealthCheck
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.App.Storage).
		Str("tx_isolation", cfg.DB.TxIsolation).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	// Caché de precios opcional: sin REDIS_ADDR se consulta siempre el repositorio.
	var (
		priceCache     pricing.HistoryCache
		limiterStorage fiber.Storage
	)
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer func(c *redis.Client) { _ = c.Close() }(client)
		pc := cache.NewPriceHistoryCache(client, cache.DefaultPrefix, cfg.Redis.PriceTTL)
		defer func() { log.Info().Interface("stats", pc.Stats()).Msg("caché de precios") }()
		priceCache = pc
		be.checks["redis"] = pc.Ping
		ls := cache.NewLimiterStorage(cfg.Redis)
		defer func() { _ = ls.Close() }()
		limiterStorage = ls
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.PriceTTL).Msg("caché de precios y límite de login en Redis")
	}

	m := metrics.New("stock_api")

	priceUC := pricing.NewPriceUseCase(be.prices, be.products, priceCache, log.Component("pricing"))
	ledgerUC := ledger.NewStockLedgerUseCase(
		be.tx, be.products, be.suppliers, be.summaries,
		ledger.RetryConfig{MaxAttempts: cfg.Ledger.MaxAttempts, Backoff: cfg.Ledger.RetryBackoff},
		m, log.Component("ledger"),
	)
	authUC := auth.NewAuthUseCase(be.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	pdfGenerator := infrapdf.NewStockReportGenerator("Reporte de inventario")

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httpRouter.ErrorHandler,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Stock API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		UserUC:          usecase.NewUserUseCase(be.users),
		ProductUC:       usecase.NewProductUseCase(be.products, be.summaries, priceUC),
		SupplierUC:      usecase.NewSupplierUseCase(be.suppliers),
		MovementUC:      usecase.NewMovementUseCase(be.purchases, be.sales),
		StockUC:         usecase.NewStockUseCase(be.summaries, be.products, priceUC, pdfGenerator),
		LedgerUC:        ledgerUC,
		PriceUC:         priceUC,
		Metrics:         m,
		Checks:          be.checks,
		ServiceName:     cfg.App.Name,
		JWTSecret:       cfg.JWT.Secret,
		LoginRateLimit:  cfg.HTTP.LoginRateLimit,
		LoginRateWindow: cfg.HTTP.LoginRateWindow,
		LimiterStorage:  limiterStorage,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.Storage == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.New()
		return &backend{
			tx:        store,
			products:  store.Products(),
			suppliers: store.Suppliers(),
			purchases: store.Purchases(),
			sales:     store.Sales(),
			prices:    store.Prices(),
			summaries: store.StockSummaries(),
			users:     store.Users(),
			checks:    map[string]httpRouter.HealthCheck{},
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &backend{
		tx:        postgres.NewTxRunner(pool, cfg.DB),
		products:  postgres.NewProductRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		purchases: postgres.NewPurchaseRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		prices:    postgres.NewPriceRepository(pool),
		summaries: postgres.NewStockSummaryRepository(pool),
		users:     postgres.NewUserRepository(pool),
		checks:    map[string]httpRouter.HealthCheck{"postgres": pool.Ping},
		close:     pool.Close,
	}, nil
}

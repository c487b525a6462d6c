package postgres

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/pkg/config"
)

// Pruebas de integración: requieren TEST_DATABASE_URL apuntando a una base desechable.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()))
	// Migrar dos veces no debe fallar.
	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()))
	return pool
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) (productID, supplierID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	productID, supplierID = uuid.NewString(), uuid.NewString()
	require.NoError(t, NewProductRepository(pool).Create(ctx, &entity.Product{ID: productID, Name: "Arroz", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, NewSupplierRepository(pool).Create(ctx, &entity.Supplier{ID: supplierID, Name: "Granos SAS", CreatedAt: now, UpdatedAt: now}))
	return productID, supplierID
}

func newLedger(pool *pgxpool.Pool, isolation string) *ledger.StockLedgerUseCase {
	runner := NewTxRunner(pool, config.DBConfig{TxIsolation: isolation, LockTimeout: 5 * time.Second})
	return ledger.NewStockLedgerUseCase(
		runner, NewProductRepository(pool), NewSupplierRepository(pool), NewStockSummaryRepository(pool),
		ledger.RetryConfig{MaxAttempts: 20, Backoff: 2 * time.Millisecond}, nil, zerolog.Nop(),
	)
}

func TestLedger_VentasConcurrentesNoSobrevenden(t *testing.T) {
	for _, iso := range []string{"read_committed", "serializable"} {
		t.Run(iso, func(t *testing.T) {
			pool := testPool(t)
			productID, supplierID := seedCatalog(t, pool)
			uc := newLedger(pool, iso)
			ctx := context.Background()

			_, _, err := uc.RecordPurchase(ctx, ledger.PurchaseInput{
				ProductID: productID, SupplierID: supplierID, Quantity: 10, UnitCost: decimal.NewFromInt(2),
			})
			require.NoError(t, err)

			var wg sync.WaitGroup
			var mu sync.Mutex
			ok := 0
			for i := 0; i < 15; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, _, err := uc.RecordSale(ctx, ledger.SaleInput{ProductID: productID, Quantity: 1}); err == nil {
						mu.Lock()
						ok++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 10, ok)
			sum, err := NewStockSummaryRepository(pool).Get(ctx, productID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), sum.AvailableQuantity)
			sold, err := NewSaleRepository(pool).TotalQuantity(ctx, productID)
			require.NoError(t, err)
			assert.Equal(t, int64(10), sold)
		})
	}
}

// Primeras compras simultáneas de un producto sin agregado: ambas crean la fila a la vez.
func TestLedger_ComprasConcurrentesSinAgregado(t *testing.T) {
	for _, iso := range []string{"read_committed", "serializable"} {
		t.Run(iso, func(t *testing.T) {
			pool := testPool(t)
			productID, supplierID := seedCatalog(t, pool)
			uc := newLedger(pool, iso)
			ctx := context.Background()

			sum, err := NewStockSummaryRepository(pool).Get(ctx, productID)
			require.NoError(t, err)
			require.Nil(t, sum)

			const buyers = 4
			start := make(chan struct{})
			errs := make(chan error, buyers)
			var wg sync.WaitGroup
			for i := 0; i < buyers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, _, err := uc.RecordPurchase(ctx, ledger.PurchaseInput{
						ProductID: productID, SupplierID: supplierID, Quantity: 5, UnitCost: decimal.NewFromInt(3),
					})
					errs <- err
				}()
			}
			close(start)
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			sum, err = NewStockSummaryRepository(pool).Get(ctx, productID)
			require.NoError(t, err)
			require.NotNil(t, sum)
			assert.Equal(t, int64(5*buyers), sum.AvailableQuantity)
		})
	}
}

func TestStockSummary_GetForUpdateProductoInexistente(t *testing.T) {
	pool := testPool(t)
	runner := NewTxRunner(pool, config.DBConfig{})
	err := runner.Run(context.Background(), func(_ repository.PurchaseRepository, _ repository.SaleRepository, sr repository.StockSummaryRepository, _ repository.ProductRepository) error {
		_, err := sr.GetForUpdate(context.Background(), uuid.NewString())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockSummary_SaveNegativoEsStockInsuficiente(t *testing.T) {
	pool := testPool(t)
	productID, _ := seedCatalog(t, pool)
	err := NewStockSummaryRepository(pool).Save(context.Background(), &entity.StockSummary{ProductID: productID, AvailableQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPriceRepo_HistorialOrdenado(t *testing.T) {
	pool := testPool(t)
	productID, _ := seedCatalog(t, pool)
	repo := NewPriceRepository(pool)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, eff := range []time.Time{base, base.AddDate(0, 2, 0), base.AddDate(0, 1, 0)} {
		require.NoError(t, repo.Create(ctx, &entity.ProductPrice{
			ID: uuid.NewString(), ProductID: productID, Price: decimal.NewFromInt(int64(10 + i)),
			EffectiveAt: eff, CreatedAt: time.Now(),
		}))
	}
	list, err := repo.ListByProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].EffectiveAt.Equal(base.AddDate(0, 2, 0)))
	assert.True(t, list[2].EffectiveAt.Equal(base))

	// El historial cae con el producto.
	require.NoError(t, NewProductRepository(pool).Delete(ctx, productID))
	list, err = repo.ListByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProductDelete_ConComprasEsConflicto(t *testing.T) {
	pool := testPool(t)
	productID, supplierID := seedCatalog(t, pool)
	ctx := context.Background()
	_, _, err := newLedger(pool, "read_committed").RecordPurchase(ctx, ledger.PurchaseInput{
		ProductID: productID, SupplierID: supplierID, Quantity: 1, UnitCost: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, NewProductRepository(pool).Delete(ctx, productID), domain.ErrConflict)
	assert.ErrorIs(t, NewSupplierRepository(pool).Delete(ctx, supplierID), domain.ErrConflict)
}

func TestUserRepo_EmailUnicoSinMayusculas(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()
	email := uuid.NewString() + "@test.co"
	now := time.Now()
	require.NoError(t, repo.Create(ctx, &entity.User{ID: uuid.NewString(), Email: email, Name: "A", Role: entity.RoleAdmin, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now}))
	err := repo.Create(ctx, &entity.User{ID: uuid.NewString(), Email: strings.ToUpper(email), Name: "B", Role: entity.RoleAdmin, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	u, err := repo.GetByEmail(ctx, strings.ToUpper(email))
	require.NoError(t, err)
	require.NotNil(t, u)
}

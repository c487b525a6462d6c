package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", Name: "Leche", CreatedAt: time.Now()}))
	require.NoError(t, s.Suppliers().Create(ctx, &entity.Supplier{ID: "s1", Name: "Lácteos SA"}))
}

func TestRun_CommitPublicaCambios(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()

	err := s.Run(ctx, func(pr repository.PurchaseRepository, _ repository.SaleRepository, sr repository.StockSummaryRepository, _ repository.ProductRepository) error {
		sum, err := sr.GetForUpdate(ctx, "p1")
		if err != nil {
			return err
		}
		sum.AvailableQuantity = 5
		if err := pr.Create(ctx, &entity.Purchase{ID: "c1", ProductID: "p1", SupplierID: "s1", Quantity: 5, UnitCost: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		return sr.Save(ctx, sum)
	})
	require.NoError(t, err)

	sum, err := s.StockSummaries().Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, int64(5), sum.AvailableQuantity)
	p, err := s.Purchases().GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRun_ErrorDescartaTodo(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(pr repository.PurchaseRepository, _ repository.SaleRepository, sr repository.StockSummaryRepository, _ repository.ProductRepository) error {
		if _, err := sr.GetForUpdate(ctx, "p1"); err != nil {
			return err
		}
		if err := pr.Create(ctx, &entity.Purchase{ID: "c1", ProductID: "p1", SupplierID: "s1", Quantity: 5}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	sum, _ := s.StockSummaries().Get(ctx, "p1")
	assert.Nil(t, sum, "la fila creada por GetForUpdate también se descarta")
	p, _ := s.Purchases().GetByID(ctx, "c1")
	assert.Nil(t, p)
}

func TestRun_ContextoCanceladoNoPublica(t *testing.T) {
	s := New()
	seed(t, s)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Run(ctx, func(pr repository.PurchaseRepository, _ repository.SaleRepository, _ repository.StockSummaryRepository, _ repository.ProductRepository) error {
		cancel()
		return pr.Create(ctx, &entity.Purchase{ID: "c1", ProductID: "p1", SupplierID: "s1", Quantity: 1})
	})
	require.ErrorIs(t, err, context.Canceled)
	p, _ := s.Purchases().GetByID(context.Background(), "c1")
	assert.Nil(t, p)
}

func TestInjectFault_SeConsumeYDesaparece(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()
	s.InjectFault("prices.list", domain.ErrConflict, 1)

	_, err := s.Prices().ListByProduct(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = s.Prices().ListByProduct(ctx, "p1")
	assert.NoError(t, err)
}

func TestProductDelete_ConMovimientosEsConflicto(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.Purchases().Create(ctx, &entity.Purchase{ID: "c1", ProductID: "p1", SupplierID: "s1", Quantity: 1}))

	assert.ErrorIs(t, s.Products().Delete(ctx, "p1"), domain.ErrConflict)
	assert.ErrorIs(t, s.Suppliers().Delete(ctx, "s1"), domain.ErrConflict)
	assert.ErrorIs(t, s.Products().Delete(ctx, "nope"), domain.ErrNotFound)
}

func TestPurchaseList_FiltrosYPaginacion(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Purchases().Create(ctx, &entity.Purchase{
			ID: id, ProductID: "p1", SupplierID: "s1", Quantity: 1, PurchasedAt: base.AddDate(0, 0, i),
		}))
	}

	all, err := s.Purchases().List(ctx, repository.MovementFilter{ProductID: "p1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "más reciente primero")

	from := base.AddDate(0, 0, 1)
	page, err := s.Purchases().List(ctx, repository.MovementFilter{From: &from, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)
}

func TestListExpiringBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: id}))
	}
	err := s.Run(ctx, func(_ repository.PurchaseRepository, _ repository.SaleRepository, sr repository.StockSummaryRepository, _ repository.ProductRepository) error {
		for _, sum := range []entity.StockSummary{
			{ProductID: "p1", AvailableQuantity: 3, NextToExpire: &mar},
			{ProductID: "p2", AvailableQuantity: 2, NextToExpire: &feb},
			{ProductID: "p3", AvailableQuantity: 0, NextToExpire: &feb},
		} {
			sum := sum
			if err := sr.Save(ctx, &sum); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	got, err := s.StockSummaries().ListExpiringBefore(ctx, mar)
	require.NoError(t, err)
	require.Len(t, got, 2, "sin stock no cuenta")
	assert.Equal(t, "p2", got[0].ProductID)
	assert.Equal(t, "p1", got[1].ProductID)
}

// Filas sin fecha de vencimiento mezcladas con IDs en orden inverso a las fechas:
// el resultado sigue ordenado por fecha y desempata por producto.
func TestListExpiringBefore_SinFechaNoAlteraElOrden(t *testing.T) {
	s := New()
	ctx := context.Background()
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []entity.StockSummary{
		{ProductID: "c", AvailableQuantity: 1, NextToExpire: &jan},
		{ProductID: "b", AvailableQuantity: 4},
		{ProductID: "a", AvailableQuantity: 2, NextToExpire: &feb},
		{ProductID: "d", AvailableQuantity: 1, NextToExpire: &feb},
		{ProductID: "e", AvailableQuantity: 6},
	}
	for _, r := range rows {
		require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: r.ProductID}))
	}
	err := s.Run(ctx, func(_ repository.PurchaseRepository, _ repository.SaleRepository, sr repository.StockSummaryRepository, _ repository.ProductRepository) error {
		for _, sum := range rows {
			sum := sum
			if err := sr.Save(ctx, &sum); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	// El orden de recorrido del mapa varía entre llamadas.
	for i := 0; i < 20; i++ {
		got, err := s.StockSummaries().ListExpiringBefore(ctx, feb)
		require.NoError(t, err)
		ids := make([]string, len(got))
		for j, g := range got {
			ids[j] = g.ProductID
		}
		require.Equal(t, []string{"c", "a", "d"}, ids)
	}
}

func TestUserEmailUnico(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &entity.User{ID: "u1", Email: "a@b.co"}))
	assert.ErrorIs(t, s.Users().Create(ctx, &entity.User{ID: "u2", Email: "A@B.co"}), domain.ErrEmailAlreadyExists)

	u, err := s.Users().GetByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
}

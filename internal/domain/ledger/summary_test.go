package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/ledger"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestApplyPurchase_CreaYBajaVencimiento(t *testing.T) {
	s := &entity.StockSummary{ProductID: "p1"}

	require.NoError(t, ledger.ApplyPurchase(s, 5, day("2025-03-01")))
	assert.Equal(t, int64(5), s.AvailableQuantity)
	assert.Equal(t, *day("2025-03-01"), *s.NextToExpire)

	// Un vencimiento anterior reemplaza al actual
	require.NoError(t, ledger.ApplyPurchase(s, 2, day("2025-02-01")))
	assert.Equal(t, *day("2025-02-01"), *s.NextToExpire)

	// Uno posterior nunca sobrescribe al anterior
	require.NoError(t, ledger.ApplyPurchase(s, 1, day("2025-04-01")))
	assert.Equal(t, *day("2025-02-01"), *s.NextToExpire)

	// Sin vencimiento no toca el campo
	require.NoError(t, ledger.ApplyPurchase(s, 1, nil))
	assert.Equal(t, *day("2025-02-01"), *s.NextToExpire)
	assert.Equal(t, int64(9), s.AvailableQuantity)
}

func TestApplyPurchase_CantidadInvalida(t *testing.T) {
	s := &entity.StockSummary{}
	assert.ErrorIs(t, ledger.ApplyPurchase(s, 0, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, ledger.ApplyPurchase(s, -3, nil), domain.ErrInvalidInput)
	assert.Zero(t, s.AvailableQuantity)
}

func TestChangePurchase_AplicaDelta(t *testing.T) {
	s := &entity.StockSummary{AvailableQuantity: 10, NextToExpire: day("2025-03-01")}

	require.NoError(t, ledger.ChangePurchase(s, 4, 7, day("2025-05-01")))
	assert.Equal(t, int64(13), s.AvailableQuantity)
	assert.Equal(t, *day("2025-03-01"), *s.NextToExpire, "NextToExpire no sube al editar")

	require.NoError(t, ledger.ChangePurchase(s, 7, 2, day("2025-01-15")))
	assert.Equal(t, int64(8), s.AvailableQuantity)
	assert.Equal(t, *day("2025-01-15"), *s.NextToExpire)
}

func TestChangePurchase_NoDejaStockNegativo(t *testing.T) {
	// 10 comprados, 8 vendidos: reducir la compra a 1 dejaría -1
	s := &entity.StockSummary{AvailableQuantity: 2}
	err := ledger.ChangePurchase(s, 10, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), s.AvailableQuantity, "el agregado no cambia si se rechaza")
}

func TestRemovePurchase_NoRecalculaVencimiento(t *testing.T) {
	s := &entity.StockSummary{AvailableQuantity: 5, NextToExpire: day("2025-02-01")}
	require.NoError(t, ledger.RemovePurchase(s, 5))
	assert.Zero(t, s.AvailableQuantity)
	assert.Equal(t, *day("2025-02-01"), *s.NextToExpire)

	assert.ErrorIs(t, ledger.RemovePurchase(s, 1), domain.ErrInsufficientStock)
}

func TestVentas(t *testing.T) {
	s := &entity.StockSummary{AvailableQuantity: 5}

	require.NoError(t, ledger.ApplySale(s, 5))
	assert.Zero(t, s.AvailableQuantity)

	assert.ErrorIs(t, ledger.ApplySale(s, 1), domain.ErrInsufficientStock)
	assert.ErrorIs(t, ledger.ApplySale(s, 0), domain.ErrInvalidInput)

	require.NoError(t, ledger.RemoveSale(s, 2))
	assert.Equal(t, int64(2), s.AvailableQuantity)

	// Venta de 2 editada a 4 requiere 2 unidades más de las que hay
	assert.ErrorIs(t, ledger.ChangeSale(s, 2, 5), domain.ErrInsufficientStock)
	require.NoError(t, ledger.ChangeSale(s, 2, 4))
	assert.Zero(t, s.AvailableQuantity)
	require.NoError(t, ledger.ChangeSale(s, 4, 1))
	assert.Equal(t, int64(3), s.AvailableQuantity)
}

func TestRecompute_PuedeElevarVencimiento(t *testing.T) {
	s := &entity.StockSummary{AvailableQuantity: 99, NextToExpire: day("2024-01-01")}
	ledger.Recompute(s, 12, 4, day("2025-06-01"))
	assert.Equal(t, int64(8), s.AvailableQuantity)
	assert.Equal(t, *day("2025-06-01"), *s.NextToExpire)

	ledger.Recompute(s, 0, 0, nil)
	assert.Nil(t, s.NextToExpire)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	in := time.Date(2025, 3, 1, 22, 30, 0, 0, loc) // 2025-03-02 03:30 UTC
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), ledger.Day(in))
}

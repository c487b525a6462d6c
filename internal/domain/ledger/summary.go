// Package ledger contiene las reglas puras que pliegan compras y ventas sobre el StockSummary.
// No hace I/O: el caso de uso lee y bloquea las filas, aplica estas reglas y persiste el resultado
// dentro de la misma transacción.
package ledger

import (
	"time"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// Day normaliza un instante a la fecha UTC (00:00). Los vencimientos se comparan por día.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Earliest devuelve la menor de dos fechas opcionales. Un nil nunca gana a una fecha presente.
func Earliest(current, candidate *time.Time) *time.Time {
	if candidate == nil {
		return current
	}
	if current == nil || candidate.Before(*current) {
		c := Day(*candidate)
		return &c
	}
	return current
}

// ApplyPurchase suma una compra nueva al agregado y baja NextToExpire si el vencimiento es anterior.
func ApplyPurchase(s *entity.StockSummary, quantity int64, expiration *time.Time) error {
	if quantity <= 0 {
		return domain.ErrInvalidInput
	}
	s.AvailableQuantity += quantity
	s.NextToExpire = Earliest(s.NextToExpire, expiration)
	return nil
}

// ChangePurchase aplica la diferencia entre la cantidad anterior y la nueva de una compra editada.
// NextToExpire solo puede bajar; nunca se eleva aunque la compra editada fuera la del mínimo.
func ChangePurchase(s *entity.StockSummary, oldQuantity, newQuantity int64, newExpiration *time.Time) error {
	if newQuantity <= 0 {
		return domain.ErrInvalidInput
	}
	if err := apply(s, newQuantity-oldQuantity); err != nil {
		return err
	}
	s.NextToExpire = Earliest(s.NextToExpire, newExpiration)
	return nil
}

// RemovePurchase retira la contribución de una compra borrada. NextToExpire no se recalcula.
func RemovePurchase(s *entity.StockSummary, quantity int64) error {
	return apply(s, -quantity)
}

// ApplySale descuenta una venta nueva. Rechaza con ErrInsufficientStock si el disponible quedaría negativo.
func ApplySale(s *entity.StockSummary, quantity int64) error {
	if quantity <= 0 {
		return domain.ErrInvalidInput
	}
	return apply(s, -quantity)
}

// ChangeSale aplica la diferencia de una venta editada (más unidades vendidas = menos disponible).
func ChangeSale(s *entity.StockSummary, oldQuantity, newQuantity int64) error {
	if newQuantity <= 0 {
		return domain.ErrInvalidInput
	}
	return apply(s, oldQuantity-newQuantity)
}

// RemoveSale devuelve al disponible las unidades de una venta borrada.
func RemoveSale(s *entity.StockSummary, quantity int64) error {
	return apply(s, quantity)
}

// Recompute reemplaza el agregado por los totales leídos de las filas fuente.
// Es la única operación que puede elevar NextToExpire.
func Recompute(s *entity.StockSummary, purchased, sold int64, earliestExpiration *time.Time) {
	s.AvailableQuantity = purchased - sold
	s.NextToExpire = Earliest(nil, earliestExpiration)
}

func apply(s *entity.StockSummary, delta int64) error {
	next := s.AvailableQuantity + delta
	if delta < 0 && next < 0 {
		return domain.ErrInsufficientStock
	}
	s.AvailableQuantity = next
	return nil
}

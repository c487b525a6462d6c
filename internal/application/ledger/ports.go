package ledger

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el libro de stock: o se aplican todas las escrituras de fn o ninguna.
// Los fallos de serialización / bloqueo del motor se devuelven envueltos en domain.ErrConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		purchaseRepo repository.PurchaseRepository,
		saleRepo repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Metrics observaciones del libro de stock. La implementación Prometheus vive en infrastructure/metrics.
type Metrics interface {
	ObserveOperation(op, result string)
	ObserveConflictRetry(op string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, string) {}
func (nopMetrics) ObserveConflictRetry(string)     {}

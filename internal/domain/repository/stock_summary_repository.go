package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// StockSummaryRepository define el puerto para el agregado de stock por producto.
// Solo el libro de stock (ledger) escribe en él.
type StockSummaryRepository interface {
	// Get devuelve (nil, nil) si el producto aún no tiene agregado.
	Get(ctx context.Context, productID string) (*entity.StockSummary, error)
	// GetForUpdate bloquea la fila del producto (creándola en cero si no existe) y la devuelve.
	// Dos transacciones sobre el mismo producto quedan serializadas en este punto.
	GetForUpdate(ctx context.Context, productID string) (*entity.StockSummary, error)
	Save(ctx context.Context, summary *entity.StockSummary) error
	List(ctx context.Context, limit, offset int) ([]*entity.StockSummary, error)
	// ListExpiringBefore devuelve agregados con stock y NextToExpire <= limit, del más próximo al más lejano.
	ListExpiringBefore(ctx context.Context, limit time.Time) ([]*entity.StockSummary, error)
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// PurchaseRepository puerto de persistencia para compras.
// Los métodos *ForUpdate solo tienen sentido dentro de una transacción.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	// GetForUpdate obtiene la compra bloqueando la fila (SELECT FOR UPDATE). (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error)
	Update(ctx context.Context, purchase *entity.Purchase) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.Purchase, error)
	// Totals devuelve la suma de cantidades y el vencimiento mínimo de las compras del producto.
	Totals(ctx context.Context, productID string) (quantity int64, earliestExpiration *time.Time, err error)
}

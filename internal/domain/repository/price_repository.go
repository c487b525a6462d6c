package repository

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// PriceRepository puerto de persistencia para el historial de precios.
type PriceRepository interface {
	Create(ctx context.Context, price *entity.ProductPrice) error
	GetByID(ctx context.Context, id string) (*entity.ProductPrice, error)
	Update(ctx context.Context, price *entity.ProductPrice) error
	Delete(ctx context.Context, id string) error
	// ListByProduct devuelve todo el historial del producto (orden no garantizado;
	// el orden canónico lo define pricing.SortHistory).
	ListByProduct(ctx context.Context, productID string) ([]entity.ProductPrice, error)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductPrice es una fila del historial de precios de un producto.
// Rige desde EffectiveAt; CreatedAt define el orden de creación para desempatar.
type ProductPrice struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Price       decimal.Decimal `json:"price"`
	EffectiveAt time.Time       `json:"effective_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePriceRequest alta de un precio. effective_at vacío = ahora.
type CreatePriceRequest struct {
	Price       decimal.Decimal `json:"price" validate:"required,gt=0"`
	EffectiveAt *string         `json:"effective_at"`
}

// UpdatePriceRequest edición parcial de un precio.
type UpdatePriceRequest struct {
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	EffectiveAt *string          `json:"effective_at"`
}

// PriceResponse fila del historial; Status solo viene en listados ("active" | "inactive").
type PriceResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Price       decimal.Decimal `json:"price"`
	EffectiveAt time.Time       `json:"effective_at"`
	CreatedAt   time.Time       `json:"created_at"`
	Status      string          `json:"status,omitempty"`
}

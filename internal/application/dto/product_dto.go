package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Description     string `json:"description" validate:"max=2000"`
	UnitDescription string `json:"unit_description" validate:"max=100"`
}

// UpdateProductRequest entrada para actualizar un producto (campo nil = sin cambio).
type UpdateProductRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	UnitDescription *string `json:"unit_description" validate:"omitempty,max=100"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	UnitDescription string    `json:"unit_description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProductDetailResponse producto con su agregado de stock y su precio vigente (si hay).
type ProductDetailResponse struct {
	ProductResponse
	Stock       StockSummaryResponse `json:"stock"`
	ActivePrice *decimal.Decimal     `json:"active_price"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

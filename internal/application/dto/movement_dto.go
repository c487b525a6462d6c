package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest entrada para registrar una compra. Fechas: YYYY-MM-DD o RFC 3339.
type CreatePurchaseRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	SupplierID     string          `json:"supplier_id" validate:"required"`
	Quantity       int64           `json:"quantity" validate:"required,gt=0"`
	UnitCost       decimal.Decimal `json:"unit_cost" validate:"required,gt=0"`
	ExpirationDate *string         `json:"expiration_date"`
	PurchasedAt    *string         `json:"purchased_at"`
}

// UpdatePurchaseRequest edición parcial de una compra (campo ausente = sin cambio).
type UpdatePurchaseRequest struct {
	SupplierID     *string          `json:"supplier_id" validate:"omitempty,min=1"`
	Quantity       *int64           `json:"quantity" validate:"omitempty,gt=0"`
	UnitCost       *decimal.Decimal `json:"unit_cost" validate:"omitempty,gt=0"`
	ExpirationDate *string          `json:"expiration_date"`
	PurchasedAt    *string          `json:"purchased_at"`
}

// PurchaseResponse salida de una compra.
type PurchaseResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	SupplierID     string          `json:"supplier_id"`
	Quantity       int64           `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ExpirationDate *string         `json:"expiration_date"`
	PurchasedAt    time.Time       `json:"purchased_at"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateSaleRequest entrada para registrar una venta.
type CreateSaleRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
	SoldAt    *string          `json:"sold_at"`
}

// UpdateSaleRequest edición parcial de una venta.
type UpdateSaleRequest struct {
	Quantity  *int64           `json:"quantity" validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
	SoldAt    *string          `json:"sold_at"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	SoldAt    time.Time        `json:"sold_at"`
	CreatedBy string           `json:"created_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PurchaseResult compra + agregado resultante.
type PurchaseResult struct {
	Purchase PurchaseResponse     `json:"purchase"`
	Stock    StockSummaryResponse `json:"stock"`
}

// SaleResult venta + agregado resultante.
type SaleResult struct {
	Sale  SaleResponse         `json:"sale"`
	Stock StockSummaryResponse `json:"stock"`
}

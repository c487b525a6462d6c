package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseInput entrada para registrar una compra (ya validada en forma por el handler).
type PurchaseInput struct {
	ProductID      string
	SupplierID     string
	UserID         string
	Quantity       int64
	UnitCost       decimal.Decimal
	ExpirationDate *time.Time
	PurchasedAt    *time.Time // nil = ahora
}

// PurchaseUpdate edición parcial de una compra: campo nil = sin cambio.
// El producto de una compra no se puede cambiar (se borra y se registra otra).
type PurchaseUpdate struct {
	SupplierID     *string
	Quantity       *int64
	UnitCost       *decimal.Decimal
	ExpirationDate *time.Time
	PurchasedAt    *time.Time
}

// SaleInput entrada para registrar una venta.
type SaleInput struct {
	ProductID string
	UserID    string
	Quantity  int64
	UnitPrice *decimal.Decimal
	SoldAt    *time.Time // nil = ahora
}

// SaleUpdate edición parcial de una venta: campo nil = sin cambio.
type SaleUpdate struct {
	Quantity  *int64
	UnitPrice *decimal.Decimal
	SoldAt    *time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase representa una entrada de mercancía de un proveedor.
// Toda alta, edición o baja se refleja en el StockSummary del producto en la misma transacción.
type Purchase struct {
	ID             string
	ProductID      string
	SupplierID     string
	Quantity       int64           // > 0
	UnitCost       decimal.Decimal // > 0
	ExpirationDate *time.Time      // fecha (sin hora), opcional
	PurchasedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      string
}

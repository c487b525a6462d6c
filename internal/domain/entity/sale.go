package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa una salida por venta. Descuenta del StockSummary en la misma transacción.
type Sale struct {
	ID        string
	ProductID string
	Quantity  int64            // > 0
	UnitPrice *decimal.Decimal // opcional, precio cobrado
	SoldAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

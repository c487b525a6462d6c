package entity

import "time"

// StockSummary agregado por producto (tabla derivada).
// AvailableQuantity = Σ compras vigentes − Σ ventas vigentes.
// NextToExpire es la fecha de vencimiento más próxima conocida; solo baja con compras/ediciones
// y se recalcula únicamente con un recálculo explícito.
type StockSummary struct {
	ProductID         string
	AvailableQuantity int64
	NextToExpire      *time.Time
	UpdatedAt         time.Time
}

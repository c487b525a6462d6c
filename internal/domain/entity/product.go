package entity

import "time"

// Product representa un producto del catálogo.
// La cantidad disponible no vive aquí: se deriva en StockSummary a partir de compras y ventas.
type Product struct {
	ID              string
	Name            string
	Description     string
	UnitDescription string // ej. "caja x 12", "kg"
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

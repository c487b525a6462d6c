package entity

import "time"

// Supplier representa un proveedor. Las compras lo referencian; no deriva agregados.
type Supplier struct {
	ID          string
	Name        string
	ContactName string
	Phone       string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package repository

import "time"

// MovementFilter filtros comunes para listar compras y ventas.
type MovementFilter struct {
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSummaryResponse agregado de stock de un producto.
type StockSummaryResponse struct {
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name,omitempty"`
	AvailableQuantity int64     `json:"available_quantity"`
	NextToExpire      *string   `json:"next_to_expire"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// StockListResponse lista paginada de agregados.
type StockListResponse struct {
	Items []StockSummaryResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

// StockReportRow fila del reporte PDF de stock.
type StockReportRow struct {
	ProductName       string
	UnitDescription   string
	AvailableQuantity int64
	NextToExpire      *time.Time
	ActivePrice       *decimal.Decimal
}

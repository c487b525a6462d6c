package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/application/dto"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0,00",
		"999":       "999,00",
		"25000":     "25.000,00",
		"1234567.5": "1.234.567,50",
		"-1500":     "-1.500,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestGenerateStockReport(t *testing.T) {
	exp := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	price := decimal.RequireFromString("4500")
	rows := []dto.StockReportRow{
		{ProductName: "Leche entera", UnitDescription: "bolsa 1L", AvailableQuantity: 40, NextToExpire: &exp, ActivePrice: &price},
		{ProductName: "Sal", AvailableQuantity: 0},
	}

	b, err := NewStockReportGenerator("").GenerateStockReport(context.Background(), rows, exp.AddDate(0, 0, -2))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestGenerateStockReport_SinFilas(t *testing.T) {
	b, err := NewStockReportGenerator("Inventario").GenerateStockReport(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}

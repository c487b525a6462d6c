package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/application/usecase"
)

// StockHandler tablero de stock: agregados, vencimientos, recálculo y reporte PDF.
type StockHandler struct {
	stock  *usecase.StockUseCase
	ledger *ledger.StockLedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(stock *usecase.StockUseCase, l *ledger.StockLedgerUseCase) *StockHandler {
	return &StockHandler{stock: stock, ledger: l}
}

// List godoc
// @Summary      Agregados de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.StockListResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	out, err := h.stock.List(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Expiring godoc
// @Summary      Productos con stock que vencen dentro de N días (incluye vencidos)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días"  default(30)
// @Success      200   {array}  dto.StockSummaryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/expiring [get]
func (h *StockHandler) Expiring(c *fiber.Ctx) error {
	out, err := h.stock.ExpiringWithin(c.UserContext(), c.QueryInt("days", 30))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF de stock
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/stock/report.pdf [get]
func (h *StockHandler) Report(c *fiber.Ctx) error {
	pdf, err := h.stock.Report(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="stock-%s.pdf"`, time.Now().Format("20060102")))
	return c.Send(pdf)
}

// ProductStock godoc
// @Summary      Agregado de stock de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *StockHandler) ProductStock(c *fiber.Ctx) error {
	id := c.Params("id")
	sum, err := h.ledger.GetSummary(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockSummaryResponse(id, sum))
}

// Recompute godoc
// @Summary      Recalcular el agregado desde compras y ventas (admin)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock/recompute [post]
func (h *StockHandler) Recompute(c *fiber.Ctx) error {
	id := c.Params("id")
	sum, err := h.ledger.RecomputeSummary(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockSummaryResponse(id, sum))
}

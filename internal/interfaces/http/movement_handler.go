package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/application/usecase"
)

// MovementHandler compras y ventas. Toda escritura pasa por el libro de stock.
type MovementHandler struct {
	ledger    *ledger.StockLedgerUseCase
	movements *usecase.MovementUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(l *ledger.StockLedgerUseCase, m *usecase.MovementUseCase) *MovementHandler {
	return &MovementHandler{ledger: l, movements: m}
}

// movementQuery lee product_id, from, to, limit y offset.
func movementQuery(c *fiber.Ctx) (usecase.MovementQuery, error) {
	from, err := dto.ParseDate(c.Query("from"))
	if err != nil {
		return usecase.MovementQuery{}, err
	}
	to, err := dto.ParseDate(c.Query("to"))
	if err != nil {
		return usecase.MovementQuery{}, err
	}
	limit, offset := pagination(c)
	return usecase.MovementQuery{ProductID: c.Query("product_id"), From: from, To: to, Limit: limit, Offset: offset}, nil
}

// CreatePurchase godoc
// @Summary      Registrar compra (suma al stock)
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseRequest  true  "Compra"
// @Success      201   {object}  dto.PurchaseResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *MovementHandler) CreatePurchase(c *fiber.Ctx) error {
	var in dto.CreatePurchaseRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	exp, err := dto.ParseOptionalDate(in.ExpirationDate)
	if err != nil {
		return respondError(c, err)
	}
	purchasedAt, err := dto.ParseOptionalDate(in.PurchasedAt)
	if err != nil {
		return respondError(c, err)
	}
	p, sum, err := h.ledger.RecordPurchase(c.UserContext(), ledger.PurchaseInput{
		ProductID:      in.ProductID,
		SupplierID:     in.SupplierID,
		UserID:         GetUserID(c),
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		ExpirationDate: exp,
		PurchasedAt:    purchasedAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseResult{
		Purchase: dto.ToPurchaseResponse(p),
		Stock:    dto.ToStockSummaryResponse(p.ProductID, sum),
	})
}

// UpdatePurchase godoc
// @Summary      Editar compra (ajusta el stock por la diferencia)
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la compra"
// @Param        body  body  dto.UpdatePurchaseRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.PurchaseResult
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [put]
func (h *MovementHandler) UpdatePurchase(c *fiber.Ctx) error {
	var in dto.UpdatePurchaseRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	exp, err := dto.ParseOptionalDate(in.ExpirationDate)
	if err != nil {
		return respondError(c, err)
	}
	purchasedAt, err := dto.ParseOptionalDate(in.PurchasedAt)
	if err != nil {
		return respondError(c, err)
	}
	p, sum, err := h.ledger.UpdatePurchase(c.UserContext(), c.Params("id"), ledger.PurchaseUpdate{
		SupplierID:     in.SupplierID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		ExpirationDate: exp,
		PurchasedAt:    purchasedAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.PurchaseResult{
		Purchase: dto.ToPurchaseResponse(p),
		Stock:    dto.ToStockSummaryResponse(p.ProductID, sum),
	})
}

// DeletePurchase godoc
// @Summary      Eliminar compra (resta del stock)
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la compra"
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [delete]
func (h *MovementHandler) DeletePurchase(c *fiber.Ctx) error {
	sum, err := h.ledger.DeletePurchase(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockSummaryResponse(sum.ProductID, sum))
}

// GetPurchase godoc
// @Summary      Obtener compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *MovementHandler) GetPurchase(c *fiber.Ctx) error {
	out, err := h.movements.GetPurchase(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListPurchases godoc
// @Summary      Listar compras
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        from        query  string  false  "Desde (YYYY-MM-DD o RFC 3339)"
// @Param        to          query  string  false  "Hasta (YYYY-MM-DD o RFC 3339)"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.PurchaseResponse
// @Router       /api/purchases [get]
func (h *MovementHandler) ListPurchases(c *fiber.Ctx) error {
	q, err := movementQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.movements.ListPurchases(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateSale godoc
// @Summary      Registrar venta (descuenta del stock)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Venta"
// @Success      201   {object}  dto.SaleResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *MovementHandler) CreateSale(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	soldAt, err := dto.ParseOptionalDate(in.SoldAt)
	if err != nil {
		return respondError(c, err)
	}
	s, sum, err := h.ledger.RecordSale(c.UserContext(), ledger.SaleInput{
		ProductID: in.ProductID,
		UserID:    GetUserID(c),
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		SoldAt:    soldAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SaleResult{
		Sale:  dto.ToSaleResponse(s),
		Stock: dto.ToStockSummaryResponse(s.ProductID, sum),
	})
}

// UpdateSale godoc
// @Summary      Editar venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.SaleResult
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *MovementHandler) UpdateSale(c *fiber.Ctx) error {
	var in dto.UpdateSaleRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	soldAt, err := dto.ParseOptionalDate(in.SoldAt)
	if err != nil {
		return respondError(c, err)
	}
	s, sum, err := h.ledger.UpdateSale(c.UserContext(), c.Params("id"), ledger.SaleUpdate{
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		SoldAt:    soldAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SaleResult{
		Sale:  dto.ToSaleResponse(s),
		Stock: dto.ToStockSummaryResponse(s.ProductID, sum),
	})
}

// DeleteSale godoc
// @Summary      Eliminar venta (devuelve la cantidad al stock)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *MovementHandler) DeleteSale(c *fiber.Ctx) error {
	sum, err := h.ledger.DeleteSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockSummaryResponse(sum.ProductID, sum))
}

// GetSale godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *MovementHandler) GetSale(c *fiber.Ctx) error {
	out, err := h.movements.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListSales godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        from        query  string  false  "Desde"
// @Param        to          query  string  false  "Hasta"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *MovementHandler) ListSales(c *fiber.Ctx) error {
	q, err := movementQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.movements.ListSales(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

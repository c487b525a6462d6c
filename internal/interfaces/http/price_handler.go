package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/pricing"
	domainpricing "github.com/jhoicas/stock-api/internal/domain/pricing"
)

// PriceHandler historial de precios y precio vigente.
type PriceHandler struct {
	uc *pricing.PriceUseCase
}

// NewPriceHandler construye el handler.
func NewPriceHandler(uc *pricing.PriceUseCase) *PriceHandler {
	return &PriceHandler{uc: uc}
}

// List godoc
// @Summary      Historial de precios con estado (active|inactive), del más reciente al más antiguo
// @Tags         prices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.PriceResponse
// @Router       /api/products/{id}/prices [get]
func (h *PriceHandler) List(c *fiber.Ctx) error {
	rows, err := h.uc.ListWithStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PriceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToPriceResponse(&rows[i].ProductPrice, rows[i].Status))
	}
	return c.JSON(out)
}

// Active godoc
// @Summary      Precio vigente del producto (ahora o en as_of)
// @Tags         prices
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del producto"
// @Param        as_of  query  string  false  "Instante de consulta (YYYY-MM-DD o RFC 3339)"
// @Success      200  {object}  dto.PriceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/prices/active [get]
func (h *PriceHandler) Active(c *fiber.Ctx) error {
	asOf, err := dto.ParseDate(c.Query("as_of"))
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.uc.ResolveActivePrice(c.UserContext(), c.Params("id"), asOf)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPriceResponse(p, domainpricing.StatusActive))
}

// Create godoc
// @Summary      Agregar precio al historial (admin)
// @Tags         prices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.CreatePriceRequest  true  "Precio y vigencia"
// @Success      201   {object}  dto.PriceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/prices [post]
func (h *PriceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePriceRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	eff, err := dto.ParseOptionalDate(in.EffectiveAt)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.uc.Create(c.UserContext(), c.Params("id"), pricing.CreatePriceInput{Price: in.Price, EffectiveAt: eff})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPriceResponse(p, ""))
}

// Update godoc
// @Summary      Editar precio (admin)
// @Tags         prices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del precio"
// @Param        body  body  dto.UpdatePriceRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.PriceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/prices/{id} [put]
func (h *PriceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePriceRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	eff, err := dto.ParseOptionalDate(in.EffectiveAt)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.uc.Update(c.UserContext(), c.Params("id"), pricing.PriceUpdate{Price: in.Price, EffectiveAt: eff})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPriceResponse(p, ""))
}

// Delete godoc
// @Summary      Eliminar precio (admin)
// @Tags         prices
// @Security     Bearer
// @Param        id   path  string  true  "ID del precio"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/prices/{id} [delete]
func (h *PriceHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

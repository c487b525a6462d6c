package dto

import "github.com/jhoicas/stock-api/internal/domain/entity"

// Conversión entidad → respuesta. Viven aquí porque las usan los casos de uso y los handlers.

func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		UnitDescription: p.UnitDescription,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToSupplierResponse(s *entity.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Phone:       s.Phone,
		Email:       s.Email,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func ToPurchaseResponse(p *entity.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:             p.ID,
		ProductID:      p.ProductID,
		SupplierID:     p.SupplierID,
		Quantity:       p.Quantity,
		UnitCost:       p.UnitCost,
		ExpirationDate: FormatDate(p.ExpirationDate),
		PurchasedAt:    p.PurchasedAt,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func ToSaleResponse(s *entity.Sale) SaleResponse {
	return SaleResponse{
		ID:        s.ID,
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		SoldAt:    s.SoldAt,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ToStockSummaryResponse acepta nil (producto sin agregado todavía).
func ToStockSummaryResponse(productID string, s *entity.StockSummary) StockSummaryResponse {
	if s == nil {
		return StockSummaryResponse{ProductID: productID}
	}
	return StockSummaryResponse{
		ProductID:         s.ProductID,
		AvailableQuantity: s.AvailableQuantity,
		NextToExpire:      FormatDate(s.NextToExpire),
		UpdatedAt:         s.UpdatedAt,
	}
}

func ToPriceResponse(p *entity.ProductPrice, status string) PriceResponse {
	return PriceResponse{
		ID:          p.ID,
		ProductID:   p.ProductID,
		Price:       p.Price,
		EffectiveAt: p.EffectiveAt,
		CreatedAt:   p.CreatedAt,
		Status:      status,
	}
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// MovementQuery filtros de listado de compras/ventas (from/to sobre la fecha del movimiento).
type MovementQuery struct {
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementUseCase lecturas de compras y ventas. Las escrituras pasan por el libro de stock.
type MovementUseCase struct {
	purchaseRepo repository.PurchaseRepository
	saleRepo     repository.SaleRepository
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(purchaseRepo repository.PurchaseRepository, saleRepo repository.SaleRepository) *MovementUseCase {
	return &MovementUseCase{purchaseRepo: purchaseRepo, saleRepo: saleRepo}
}

func (q MovementQuery) filter() (repository.MovementFilter, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return repository.MovementFilter{}, domain.ErrInvalidInput
	}
	page := dto.PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	return repository.MovementFilter{ProductID: q.ProductID, From: q.From, To: q.To, Limit: page.Limit, Offset: page.Offset}, nil
}

// ListPurchases compras de la más reciente a la más antigua.
func (uc *MovementUseCase) ListPurchases(ctx context.Context, q MovementQuery) ([]dto.PurchaseResponse, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	list, err := uc.purchaseRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PurchaseResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ToPurchaseResponse(p))
	}
	return out, nil
}

// GetPurchase devuelve domain.ErrNotFound si no existe.
func (uc *MovementUseCase) GetPurchase(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	p, err := uc.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ToPurchaseResponse(p)
	return &out, nil
}

// ListSales ventas de la más reciente a la más antigua.
func (uc *MovementUseCase) ListSales(ctx context.Context, q MovementQuery) ([]dto.SaleResponse, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	list, err := uc.saleRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ToSaleResponse(s))
	}
	return out, nil
}

// GetSale devuelve domain.ErrNotFound si no existe.
func (uc *MovementUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ToSaleResponse(s)
	return &out, nil
}

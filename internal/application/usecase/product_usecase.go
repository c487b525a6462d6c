package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// PriceLookup lo que el catálogo necesita del resolvedor de precios.
type PriceLookup interface {
	ResolveActivePrice(ctx context.Context, productID string, asOf *time.Time) (*entity.ProductPrice, error)
	Forget(ctx context.Context, productID string)
}

// ProductUseCase casos de uso CRUD para productos. El stock se maneja vía compras y ventas.
type ProductUseCase struct {
	repo        repository.ProductRepository
	summaryRepo repository.StockSummaryRepository
	prices      PriceLookup
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, summaryRepo repository.StockSummaryRepository, prices PriceLookup) *ProductUseCase {
	return &ProductUseCase{repo: repo, summaryRepo: summaryRepo, prices: prices}
}

// Create crea un nuevo producto. No crea agregado: nace con la primera compra.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:              uuid.New().String(),
		Name:            name,
		Description:     in.Description,
		UnitDescription: in.UnitDescription,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// GetByID obtiene el producto con su stock y su precio vigente.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductDetailResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := uc.summaryRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductDetailResponse{
		ProductResponse: dto.ToProductResponse(product),
		Stock:           dto.ToStockSummaryResponse(id, summary),
	}
	price, err := uc.prices.ResolveActivePrice(ctx, id, nil)
	switch {
	case err == nil:
		out.ActivePrice = &price.Price
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, err
	}
	return out, nil
}

// Update actualiza nombre y descripciones.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.UnitDescription != nil {
		product.UnitDescription = *in.UnitDescription
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un producto sin compras ni ventas (ErrConflict en otro caso).
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.prices.Forget(ctx, id)
	return nil
}

func (uc *ProductUseCase) get(ctx context.Context, id string) (*entity.Product, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-api/internal/domain/ledger"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// StockReportGenerator genera el PDF del reporte de stock (implementación en infrastructure/pdf).
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, rows []dto.StockReportRow, generatedAt time.Time) ([]byte, error)
}

// reportPageSize tamaño de página al recorrer el catálogo completo para el reporte.
const reportPageSize = 200

// StockUseCase lecturas del tablero de stock. Nunca escribe agregados.
type StockUseCase struct {
	summaryRepo repository.StockSummaryRepository
	productRepo repository.ProductRepository
	prices      PriceLookup
	report      StockReportGenerator
	now         func() time.Time
}

// NewStockUseCase construye el caso de uso. report puede ser nil si no se expone el PDF.
func NewStockUseCase(summaryRepo repository.StockSummaryRepository, productRepo repository.ProductRepository, prices PriceLookup, report StockReportGenerator) *StockUseCase {
	return &StockUseCase{
		summaryRepo: summaryRepo,
		productRepo: productRepo,
		prices:      prices,
		report:      report,
		now:         time.Now,
	}
}

// List agregados paginados con el nombre del producto.
func (uc *StockUseCase) List(ctx context.Context, limit, offset int) (*dto.StockListResponse, error) {
	list, err := uc.summaryRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items, err := uc.withNames(ctx, list)
	if err != nil {
		return nil, err
	}
	return &dto.StockListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// ExpiringWithin productos con stock cuyo próximo vencimiento cae dentro de los próximos days días
// (incluye los ya vencidos).
func (uc *StockUseCase) ExpiringWithin(ctx context.Context, days int) ([]dto.StockSummaryResponse, error) {
	if days < 0 || days > 3650 {
		return nil, domain.ErrInvalidInput
	}
	limit := domainledger.Day(uc.now()).AddDate(0, 0, days)
	list, err := uc.summaryRepo.ListExpiringBefore(ctx, limit)
	if err != nil {
		return nil, err
	}
	return uc.withNames(ctx, list)
}

// Report genera el PDF con todo el catálogo: disponible, próximo vencimiento y precio vigente.
func (uc *StockUseCase) Report(ctx context.Context) ([]byte, error) {
	if uc.report == nil {
		return nil, errors.New("reporte pdf no configurado")
	}
	rows, err := uc.ReportRows(ctx)
	if err != nil {
		return nil, err
	}
	return uc.report.GenerateStockReport(ctx, rows, uc.now())
}

// ReportRows filas del reporte, en el orden del listado de productos.
func (uc *StockUseCase) ReportRows(ctx context.Context) ([]dto.StockReportRow, error) {
	var rows []dto.StockReportRow
	for offset := 0; ; offset += reportPageSize {
		products, err := uc.productRepo.List(ctx, reportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			row, err := uc.reportRow(ctx, p)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if len(products) < reportPageSize {
			return rows, nil
		}
	}
}

func (uc *StockUseCase) reportRow(ctx context.Context, p *entity.Product) (dto.StockReportRow, error) {
	row := dto.StockReportRow{ProductName: p.Name, UnitDescription: p.UnitDescription}
	s, err := uc.summaryRepo.Get(ctx, p.ID)
	if err != nil {
		return row, err
	}
	if s != nil {
		row.AvailableQuantity = s.AvailableQuantity
		row.NextToExpire = s.NextToExpire
	}
	price, err := uc.prices.ResolveActivePrice(ctx, p.ID, nil)
	switch {
	case err == nil:
		row.ActivePrice = &price.Price
	case errors.Is(err, domain.ErrNotFound):
	default:
		return row, err
	}
	return row, nil
}

func (uc *StockUseCase) withNames(ctx context.Context, list []*entity.StockSummary) ([]dto.StockSummaryResponse, error) {
	items := make([]dto.StockSummaryResponse, 0, len(list))
	for _, s := range list {
		item := dto.ToStockSummaryResponse(s.ProductID, s)
		p, err := uc.productRepo.GetByID(ctx, s.ProductID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			item.ProductName = p.Name
		}
		items = append(items, item)
	}
	return items, nil
}

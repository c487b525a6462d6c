package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-api/internal/domain/ledger"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// Nombres de operación para logs y métricas.
const (
	OpRecordPurchase = "record_purchase"
	OpUpdatePurchase = "update_purchase"
	OpDeletePurchase = "delete_purchase"
	OpRecordSale     = "record_sale"
	OpUpdateSale     = "update_sale"
	OpDeleteSale     = "delete_sale"
	OpRecompute      = "recompute_summary"
)

// RetryConfig reintentos acotados ante domain.ErrConflict.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration // espera lineal: Backoff * intento
}

type txFunc = func(
	purchaseRepo repository.PurchaseRepository,
	saleRepo repository.SaleRepository,
	summaryRepo repository.StockSummaryRepository,
	productRepo repository.ProductRepository,
) error

// StockLedgerUseCase mantiene StockSummary consistente con compras y ventas.
// Cada operación corre en una sola transacción: bloquea la fila de la compra/venta (si existe),
// bloquea (o crea) la fila del agregado, aplica las reglas de domain/ledger y escribe todo.
// El orden de bloqueo es siempre movimiento → agregado.
type StockLedgerUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	summaryRepo  repository.StockSummaryRepository
	retry        RetryConfig
	metrics      Metrics
	log          zerolog.Logger
	now          func() time.Time
}

// NewStockLedgerUseCase construye el caso de uso. metrics puede ser nil.
func NewStockLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	summaryRepo repository.StockSummaryRepository,
	retry RetryConfig,
	metrics Metrics,
	log zerolog.Logger,
) *StockLedgerUseCase {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &StockLedgerUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		summaryRepo:  summaryRepo,
		retry:        retry,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
	}
}

// RecordPurchase crea la compra y la suma al agregado del producto en la misma transacción.
// Si el producto no tenía agregado, se crea con la cantidad y el vencimiento de esta compra.
func (uc *StockLedgerUseCase) RecordPurchase(ctx context.Context, in PurchaseInput) (*entity.Purchase, *entity.StockSummary, error) {
	if in.ProductID == "" || in.SupplierID == "" || in.Quantity <= 0 || !in.UnitCost.GreaterThan(decimal.Zero) {
		return nil, nil, domain.ErrInvalidInput
	}
	if err := uc.requireSupplier(ctx, in.SupplierID); err != nil {
		return nil, nil, err
	}

	now := uc.now()
	purchasedAt := now
	if in.PurchasedAt != nil {
		purchasedAt = *in.PurchasedAt
	}
	var (
		purchase *entity.Purchase
		summary  *entity.StockSummary
	)
	err := uc.inTx(ctx, OpRecordPurchase, func(
		purchaseRepo repository.PurchaseRepository,
		_ repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := requireProduct(ctx, productRepo, in.ProductID); err != nil {
			return err
		}
		s, err := summaryRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if err := domainledger.ApplyPurchase(s, in.Quantity, in.ExpirationDate); err != nil {
			return err
		}
		p := &entity.Purchase{
			ID:             uuid.New().String(),
			ProductID:      in.ProductID,
			SupplierID:     in.SupplierID,
			Quantity:       in.Quantity,
			UnitCost:       in.UnitCost,
			ExpirationDate: dayPtr(in.ExpirationDate),
			PurchasedAt:    purchasedAt,
			CreatedAt:      now,
			UpdatedAt:      now,
			CreatedBy:      in.UserID,
		}
		if err := purchaseRepo.Create(ctx, p); err != nil {
			return err
		}
		s.UpdatedAt = now
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		purchase, summary = p, s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return purchase, summary, nil
}

// UpdatePurchase relee la compra, aplica la diferencia de cantidad al agregado y reemplaza sus campos.
// NextToExpire solo baja si el nuevo vencimiento es anterior al actual.
func (uc *StockLedgerUseCase) UpdatePurchase(ctx context.Context, id string, in PurchaseUpdate) (*entity.Purchase, *entity.StockSummary, error) {
	if id == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if in.Quantity != nil && *in.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	if in.UnitCost != nil && !in.UnitCost.GreaterThan(decimal.Zero) {
		return nil, nil, domain.ErrInvalidInput
	}
	if in.SupplierID != nil {
		if err := uc.requireSupplier(ctx, *in.SupplierID); err != nil {
			return nil, nil, err
		}
	}

	var (
		purchase *entity.Purchase
		summary  *entity.StockSummary
	)
	err := uc.inTx(ctx, OpUpdatePurchase, func(
		purchaseRepo repository.PurchaseRepository,
		_ repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		_ repository.ProductRepository,
	) error {
		p, err := purchaseRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		s, err := summaryRepo.GetForUpdate(ctx, p.ProductID)
		if err != nil {
			return err
		}
		newQty := p.Quantity
		if in.Quantity != nil {
			newQty = *in.Quantity
		}
		if err := domainledger.ChangePurchase(s, p.Quantity, newQty, in.ExpirationDate); err != nil {
			return err
		}

		p.Quantity = newQty
		if in.SupplierID != nil {
			p.SupplierID = *in.SupplierID
		}
		if in.UnitCost != nil {
			p.UnitCost = *in.UnitCost
		}
		if in.ExpirationDate != nil {
			p.ExpirationDate = dayPtr(in.ExpirationDate)
		}
		if in.PurchasedAt != nil {
			p.PurchasedAt = *in.PurchasedAt
		}
		now := uc.now()
		p.UpdatedAt = now
		s.UpdatedAt = now
		if err := purchaseRepo.Update(ctx, p); err != nil {
			return err
		}
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		purchase, summary = p, s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return purchase, summary, nil
}

// DeletePurchase retira la compra y descuenta su cantidad del agregado. NextToExpire no se recalcula.
func (uc *StockLedgerUseCase) DeletePurchase(ctx context.Context, id string) (*entity.StockSummary, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var summary *entity.StockSummary
	err := uc.inTx(ctx, OpDeletePurchase, func(
		purchaseRepo repository.PurchaseRepository,
		_ repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		_ repository.ProductRepository,
	) error {
		p, err := purchaseRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		s, err := summaryRepo.GetForUpdate(ctx, p.ProductID)
		if err != nil {
			return err
		}
		if err := domainledger.RemovePurchase(s, p.Quantity); err != nil {
			return err
		}
		if err := purchaseRepo.Delete(ctx, id); err != nil {
			return err
		}
		s.UpdatedAt = uc.now()
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// RecordSale crea la venta y la descuenta del agregado. El disponible se comprueba contra el valor
// bloqueado dentro de la transacción: una venta que lo dejaría negativo se rechaza con ErrInsufficientStock.
func (uc *StockLedgerUseCase) RecordSale(ctx context.Context, in SaleInput) (*entity.Sale, *entity.StockSummary, error) {
	if in.ProductID == "" || in.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, nil, domain.ErrInvalidInput
	}

	now := uc.now()
	soldAt := now
	if in.SoldAt != nil {
		soldAt = *in.SoldAt
	}
	var (
		sale    *entity.Sale
		summary *entity.StockSummary
	)
	err := uc.inTx(ctx, OpRecordSale, func(
		_ repository.PurchaseRepository,
		saleRepo repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := requireProduct(ctx, productRepo, in.ProductID); err != nil {
			return err
		}
		s, err := summaryRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if err := domainledger.ApplySale(s, in.Quantity); err != nil {
			return err
		}
		sl := &entity.Sale{
			ID:        uuid.New().String(),
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			SoldAt:    soldAt,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: in.UserID,
		}
		if err := saleRepo.Create(ctx, sl); err != nil {
			return err
		}
		s.UpdatedAt = now
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		sale, summary = sl, s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, summary, nil
}

// UpdateSale aplica al agregado la diferencia de cantidad de una venta editada.
func (uc *StockLedgerUseCase) UpdateSale(ctx context.Context, id string, in SaleUpdate) (*entity.Sale, *entity.StockSummary, error) {
	if id == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if in.Quantity != nil && *in.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, nil, domain.ErrInvalidInput
	}

	var (
		sale    *entity.Sale
		summary *entity.StockSummary
	)
	err := uc.inTx(ctx, OpUpdateSale, func(
		_ repository.PurchaseRepository,
		saleRepo repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		_ repository.ProductRepository,
	) error {
		sl, err := saleRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sl == nil {
			return domain.ErrNotFound
		}
		s, err := summaryRepo.GetForUpdate(ctx, sl.ProductID)
		if err != nil {
			return err
		}
		newQty := sl.Quantity
		if in.Quantity != nil {
			newQty = *in.Quantity
		}
		if err := domainledger.ChangeSale(s, sl.Quantity, newQty); err != nil {
			return err
		}

		sl.Quantity = newQty
		if in.UnitPrice != nil {
			sl.UnitPrice = in.UnitPrice
		}
		if in.SoldAt != nil {
			sl.SoldAt = *in.SoldAt
		}
		now := uc.now()
		sl.UpdatedAt = now
		s.UpdatedAt = now
		if err := saleRepo.Update(ctx, sl); err != nil {
			return err
		}
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		sale, summary = sl, s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, summary, nil
}

// DeleteSale borra la venta y devuelve sus unidades al disponible.
func (uc *StockLedgerUseCase) DeleteSale(ctx context.Context, id string) (*entity.StockSummary, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var summary *entity.StockSummary
	err := uc.inTx(ctx, OpDeleteSale, func(
		_ repository.PurchaseRepository,
		saleRepo repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		_ repository.ProductRepository,
	) error {
		sl, err := saleRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sl == nil {
			return domain.ErrNotFound
		}
		s, err := summaryRepo.GetForUpdate(ctx, sl.ProductID)
		if err != nil {
			return err
		}
		if err := domainledger.RemoveSale(s, sl.Quantity); err != nil {
			return err
		}
		if err := saleRepo.Delete(ctx, id); err != nil {
			return err
		}
		s.UpdatedAt = uc.now()
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetSummary devuelve el agregado del producto. Un producto sin compras tiene disponible 0.
func (uc *StockLedgerUseCase) GetSummary(ctx context.Context, productID string) (*entity.StockSummary, error) {
	if err := requireProduct(ctx, uc.productRepo, productID); err != nil {
		return nil, err
	}
	s, err := uc.summaryRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &entity.StockSummary{ProductID: productID}, nil
	}
	return s, nil
}

// RecomputeSummary reconstruye el agregado desde las filas de compras y ventas.
// Es el recálculo completo explícito: también puede elevar NextToExpire al mínimo real.
func (uc *StockLedgerUseCase) RecomputeSummary(ctx context.Context, productID string) (*entity.StockSummary, error) {
	var summary *entity.StockSummary
	err := uc.inTx(ctx, OpRecompute, func(
		purchaseRepo repository.PurchaseRepository,
		saleRepo repository.SaleRepository,
		summaryRepo repository.StockSummaryRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := requireProduct(ctx, productRepo, productID); err != nil {
			return err
		}
		s, err := summaryRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		purchased, earliest, err := purchaseRepo.Totals(ctx, productID)
		if err != nil {
			return err
		}
		sold, err := saleRepo.TotalQuantity(ctx, productID)
		if err != nil {
			return err
		}
		before := s.AvailableQuantity
		domainledger.Recompute(s, purchased, sold, earliest)
		if before != s.AvailableQuantity {
			uc.log.Warn().
				Str("product_id", productID).
				Int64("antes", before).
				Int64("despues", s.AvailableQuantity).
				Msg("recálculo corrigió cantidad disponible")
		}
		s.UpdatedAt = uc.now()
		if err := summaryRepo.Save(ctx, s); err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// inTx ejecuta fn en una transacción, reintentando un número acotado de veces ante ErrConflict.
// Cualquier otro error (validación, stock, I/O) se devuelve sin reintentar.
func (uc *StockLedgerUseCase) inTx(ctx context.Context, op string, fn txFunc) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = uc.txRunner.Run(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= uc.retry.MaxAttempts {
			break
		}
		uc.metrics.ObserveConflictRetry(op)
		uc.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando")
		if werr := wait(ctx, uc.retry.Backoff*time.Duration(attempt)); werr != nil {
			err = werr
			break
		}
	}
	uc.metrics.ObserveOperation(op, resultLabel(err))
	if errors.Is(err, domain.ErrConflict) {
		uc.log.Error().Err(err).Str("op", op).Int("max_attempts", uc.retry.MaxAttempts).Msg("reintentos agotados")
		return domain.ErrConflict
	}
	return err
}

func (uc *StockLedgerUseCase) requireSupplier(ctx context.Context, id string) error {
	s, err := uc.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}
	return nil
}

func requireProduct(ctx context.Context, repo repository.ProductRepository, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domainledger.Day(*t)
	return &d
}

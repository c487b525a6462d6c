// Package pricing expone el historial de precios de un producto y resuelve el precio vigente.
package pricing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	domainpricing "github.com/jhoicas/stock-api/internal/domain/pricing"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// HistoryCache guarda el historial completo (ya ordenado) de un producto.
// Se cachea el historial y no la fila vigente: la vigencia depende del instante de la consulta.
// Cada escritura incrementa la versión del producto (Invalidate); Get/Set trabajan sobre una
// versión concreta, así una lectura iniciada antes de la escritura solo puede llenar una clave obsoleta.
type HistoryCache interface {
	Version(ctx context.Context, productID string) (int64, error)
	Get(ctx context.Context, productID string, version int64) ([]entity.ProductPrice, bool, error)
	Set(ctx context.Context, productID string, version int64, history []entity.ProductPrice) error
	Invalidate(ctx context.Context, productID string) error
}

type nopCache struct{}

func (nopCache) Version(context.Context, string) (int64, error) { return 0, nil }
func (nopCache) Get(context.Context, string, int64) ([]entity.ProductPrice, bool, error) {
	return nil, false, nil
}
func (nopCache) Set(context.Context, string, int64, []entity.ProductPrice) error { return nil }
func (nopCache) Invalidate(context.Context, string) error                        { return nil }

// CreatePriceInput alta de una fila del historial. EffectiveAt nil = ahora.
type CreatePriceInput struct {
	Price       decimal.Decimal
	EffectiveAt *time.Time
}

// PriceUpdate edición parcial: campo nil = sin cambio.
type PriceUpdate struct {
	Price       *decimal.Decimal
	EffectiveAt *time.Time
}

// PriceWithStatus fila del historial anotada en lectura; el estado nunca se persiste.
type PriceWithStatus struct {
	entity.ProductPrice
	Status string
}

// PriceUseCase CRUD del historial + resolución del precio vigente.
type PriceUseCase struct {
	priceRepo   repository.PriceRepository
	productRepo repository.ProductRepository
	cache       HistoryCache
	sf          singleflight.Group
	gens        sync.Map // productID -> *atomic.Int64, generación local de escrituras
	log         zerolog.Logger
	now         func() time.Time
}

// NewPriceUseCase construye el caso de uso. cache puede ser nil (sin caché).
func NewPriceUseCase(priceRepo repository.PriceRepository, productRepo repository.ProductRepository, cache HistoryCache, log zerolog.Logger) *PriceUseCase {
	if cache == nil {
		cache = nopCache{}
	}
	return &PriceUseCase{
		priceRepo:   priceRepo,
		productRepo: productRepo,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

// Create agrega una fila al historial del producto.
func (uc *PriceUseCase) Create(ctx context.Context, productID string, in CreatePriceInput) (*entity.ProductPrice, error) {
	if productID == "" || !in.Price.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	now := uc.now()
	effectiveAt := now
	if in.EffectiveAt != nil {
		effectiveAt = *in.EffectiveAt
	}
	p := &entity.ProductPrice{
		ID:          uuid.New().String(),
		ProductID:   productID,
		Price:       in.Price,
		EffectiveAt: effectiveAt,
		CreatedAt:   now,
	}
	if err := uc.priceRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, productID)
	return p, nil
}

// Update edita precio y/o fecha de vigencia. CreatedAt no cambia: conserva el orden de creación.
func (uc *PriceUseCase) Update(ctx context.Context, id string, in PriceUpdate) (*entity.ProductPrice, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Price != nil && !in.Price.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.priceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.EffectiveAt != nil {
		p.EffectiveAt = *in.EffectiveAt
	}
	if err := uc.priceRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, p.ProductID)
	return p, nil
}

// Delete elimina una fila del historial.
func (uc *PriceUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	p, err := uc.priceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	if err := uc.priceRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx, p.ProductID)
	return nil
}

// ResolveActivePrice devuelve el precio vigente en asOf (nil = ahora).
// Sin fila vigente devuelve domain.ErrNoActivePrice; si el producto no existe, domain.ErrNotFound.
func (uc *PriceUseCase) ResolveActivePrice(ctx context.Context, productID string, asOf *time.Time) (*entity.ProductPrice, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	at := uc.now()
	if asOf != nil {
		at = *asOf
	}
	history, err := uc.History(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		if err := uc.requireProduct(ctx, productID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoActivePrice
	}
	i := domainpricing.ActiveIndex(history, at)
	if i < 0 {
		return nil, domain.ErrNoActivePrice
	}
	active := history[i]
	return &active, nil
}

// ListWithStatus devuelve el historial del más reciente al más antiguo; como mucho una fila
// (la vigente ahora) queda "active". Un producto sin precios, o inexistente, devuelve lista vacía.
func (uc *PriceUseCase) ListWithStatus(ctx context.Context, productID string) ([]PriceWithStatus, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	history, err := uc.History(ctx, productID)
	if err != nil {
		return nil, err
	}
	active := domainpricing.ActiveIndex(history, uc.now())
	out := make([]PriceWithStatus, len(history))
	for i, p := range history {
		status := domainpricing.StatusInactive
		if i == active {
			status = domainpricing.StatusActive
		}
		out[i] = PriceWithStatus{ProductPrice: p, Status: status}
	}
	return out, nil
}

// History devuelve el historial ordenado (caché → repositorio). Las lecturas concurrentes
// de un mismo producto y una misma versión comparten una sola consulta.
func (uc *PriceUseCase) History(ctx context.Context, productID string) ([]entity.ProductPrice, error) {
	// La generación local y la versión se leen ANTES del repositorio: si una escritura
	// confirma durante la lectura, ambas cambian y nadie más se une ni lee lo cargado aquí.
	gen := uc.generation(productID).Load()
	version, err := uc.cache.Version(ctx, productID)
	cacheOK := err == nil
	if err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("error leyendo versión de caché de precios")
	}
	if cacheOK {
		cached, found, err := uc.cache.Get(ctx, productID, version)
		if err != nil {
			uc.log.Warn().Err(err).Str("product_id", productID).Msg("error leyendo caché de precios")
		}
		if found {
			return cached, nil
		}
	}

	key := fmt.Sprintf("%s:%d:%d", productID, version, gen)
	// La carga compartida no depende de la cancelación del primer solicitante.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := uc.sf.Do(key, func() (any, error) {
		prices, err := uc.priceRepo.ListByProduct(loadCtx, productID)
		if err != nil {
			return nil, err
		}
		domainpricing.SortHistory(prices)
		if cacheOK {
			if err := uc.cache.Set(loadCtx, productID, version, prices); err != nil {
				uc.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo cachear historial de precios")
			}
		}
		return prices, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]entity.ProductPrice)
	out := make([]entity.ProductPrice, len(shared))
	copy(out, shared)
	return out, nil
}

// Forget descarta el historial cacheado del producto (ej. al borrar el producto).
func (uc *PriceUseCase) Forget(ctx context.Context, productID string) {
	uc.invalidate(ctx, productID)
}

func (uc *PriceUseCase) invalidate(ctx context.Context, productID string) {
	uc.generation(productID).Add(1)
	if err := uc.cache.Invalidate(ctx, productID); err != nil {
		uc.log.Error().Err(err).Str("product_id", productID).Msg("no se pudo invalidar caché de precios")
	}
}

func (uc *PriceUseCase) generation(productID string) *atomic.Int64 {
	g, _ := uc.gens.LoadOrStore(productID, new(atomic.Int64))
	return g.(*atomic.Int64)
}

func (uc *PriceUseCase) requireProduct(ctx context.Context, productID string) error {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return nil
}

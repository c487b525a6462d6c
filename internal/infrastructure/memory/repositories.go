package memory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository      = (*ProductRepo)(nil)
	_ repository.SupplierRepository     = (*SupplierRepo)(nil)
	_ repository.PurchaseRepository     = (*PurchaseRepo)(nil)
	_ repository.SaleRepository         = (*SaleRepo)(nil)
	_ repository.PriceRepository        = (*PriceRepo)(nil)
	_ repository.StockSummaryRepository = (*StockSummaryRepo)(nil)
	_ repository.UserRepository         = (*UserRepo)(nil)
)

// ---------------------------------------------------------------------------
// Productos
// ---------------------------------------------------------------------------

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct {
	store *Store
	tx    *state
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("products.create"); err != nil {
			return err
		}
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.store.view(r.tx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.store.view(r.tx, func(st *state) error {
		all := sortedValues(st.products, func(a, b entity.Product) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		})
		for _, p := range paginate(all, limit, offset) {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

// Delete borra el producto con su agregado e historial de precios; falla si hay movimientos.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.ErrNotFound
		}
		for _, p := range st.purchases {
			if p.ProductID == id {
				return domain.ErrConflict
			}
		}
		for _, s := range st.sales {
			if s.ProductID == id {
				return domain.ErrConflict
			}
		}
		delete(st.products, id)
		delete(st.summaries, id)
		for pid, pr := range st.prices {
			if pr.ProductID == id {
				delete(st.prices, pid)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Proveedores
// ---------------------------------------------------------------------------

// SupplierRepo implementa repository.SupplierRepository.
type SupplierRepo struct {
	store *Store
	tx    *state
}

func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.suppliers[s.ID]; ok {
			return domain.ErrDuplicate
		}
		st.suppliers[s.ID] = *s
		return nil
	})
}

func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.store.view(r.tx, func(st *state) error {
		if s, ok := st.suppliers[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SupplierRepo) Update(ctx context.Context, s *entity.Supplier) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.suppliers[s.ID]; !ok {
			return domain.ErrNotFound
		}
		st.suppliers[s.ID] = *s
		return nil
	})
}

func (r *SupplierRepo) List(ctx context.Context, limit, offset int) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.store.view(r.tx, func(st *state) error {
		all := sortedValues(st.suppliers, func(a, b entity.Supplier) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		for _, s := range paginate(all, limit, offset) {
			s := s
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

func (r *SupplierRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.suppliers[id]; !ok {
			return domain.ErrNotFound
		}
		for _, p := range st.purchases {
			if p.SupplierID == id {
				return domain.ErrConflict
			}
		}
		delete(st.suppliers, id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Compras
// ---------------------------------------------------------------------------

// PurchaseRepo implementa repository.PurchaseRepository.
type PurchaseRepo struct {
	store *Store
	tx    *state
}

func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("purchases.create"); err != nil {
			return err
		}
		if _, ok := st.products[p.ProductID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.suppliers[p.SupplierID]; !ok {
			return domain.ErrNotFound
		}
		st.purchases[p.ID] = *p
		return nil
	})
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	var out *entity.Purchase
	err := r.store.view(r.tx, func(st *state) error {
		if p, ok := st.purchases[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate: el lock global del store ya serializa la transacción.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	var out *entity.Purchase
	err := r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("purchases.get_for_update"); err != nil {
			return err
		}
		if p, ok := st.purchases[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *PurchaseRepo) Update(ctx context.Context, p *entity.Purchase) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("purchases.update"); err != nil {
			return err
		}
		if _, ok := st.purchases[p.ID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.suppliers[p.SupplierID]; !ok {
			return domain.ErrNotFound
		}
		st.purchases[p.ID] = *p
		return nil
	})
}

func (r *PurchaseRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("purchases.delete"); err != nil {
			return err
		}
		if _, ok := st.purchases[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.purchases, id)
		return nil
	})
}

func (r *PurchaseRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Purchase, error) {
	var out []*entity.Purchase
	err := r.store.view(r.tx, func(st *state) error {
		all := sortedValues(st.purchases, func(a, b entity.Purchase) bool {
			if !a.PurchasedAt.Equal(b.PurchasedAt) {
				return a.PurchasedAt.After(b.PurchasedAt)
			}
			return a.ID < b.ID
		})
		matched := make([]entity.Purchase, 0, len(all))
		for _, p := range all {
			if matchMovement(f, p.ProductID, p.PurchasedAt) {
				matched = append(matched, p)
			}
		}
		for _, p := range paginate(matched, f.Limit, f.Offset) {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

func (r *PurchaseRepo) Totals(ctx context.Context, productID string) (int64, *time.Time, error) {
	var (
		total    int64
		earliest *time.Time
	)
	err := r.store.view(r.tx, func(st *state) error {
		for _, p := range st.purchases {
			if p.ProductID != productID {
				continue
			}
			total += p.Quantity
			if p.ExpirationDate != nil && (earliest == nil || p.ExpirationDate.Before(*earliest)) {
				e := *p.ExpirationDate
				earliest = &e
			}
		}
		return nil
	})
	return total, earliest, err
}

// ---------------------------------------------------------------------------
// Ventas
// ---------------------------------------------------------------------------

// SaleRepo implementa repository.SaleRepository.
type SaleRepo struct {
	store *Store
	tx    *state
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("sales.create"); err != nil {
			return err
		}
		if _, ok := st.products[s.ProductID]; !ok {
			return domain.ErrNotFound
		}
		st.sales[s.ID] = *s
		return nil
	})
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.store.view(r.tx, func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("sales.get_for_update"); err != nil {
			return err
		}
		if s, ok := st.sales[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("sales.update"); err != nil {
			return err
		}
		if _, ok := st.sales[s.ID]; !ok {
			return domain.ErrNotFound
		}
		st.sales[s.ID] = *s
		return nil
	})
}

func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("sales.delete"); err != nil {
			return err
		}
		if _, ok := st.sales[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.sales, id)
		return nil
	})
}

func (r *SaleRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.store.view(r.tx, func(st *state) error {
		all := sortedValues(st.sales, func(a, b entity.Sale) bool {
			if !a.SoldAt.Equal(b.SoldAt) {
				return a.SoldAt.After(b.SoldAt)
			}
			return a.ID < b.ID
		})
		matched := make([]entity.Sale, 0, len(all))
		for _, s := range all {
			if matchMovement(f, s.ProductID, s.SoldAt) {
				matched = append(matched, s)
			}
		}
		for _, s := range paginate(matched, f.Limit, f.Offset) {
			s := s
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) TotalQuantity(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.store.view(r.tx, func(st *state) error {
		for _, s := range st.sales {
			if s.ProductID == productID {
				total += s.Quantity
			}
		}
		return nil
	})
	return total, err
}

func matchMovement(f repository.MovementFilter, productID string, at time.Time) bool {
	if f.ProductID != "" && f.ProductID != productID {
		return false
	}
	if f.From != nil && at.Before(*f.From) {
		return false
	}
	if f.To != nil && at.After(*f.To) {
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Precios
// ---------------------------------------------------------------------------

// PriceRepo implementa repository.PriceRepository.
type PriceRepo struct {
	store *Store
	tx    *state
}

func (r *PriceRepo) Create(ctx context.Context, p *entity.ProductPrice) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("prices.create"); err != nil {
			return err
		}
		if _, ok := st.products[p.ProductID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.prices[p.ID]; ok {
			return domain.ErrDuplicate
		}
		st.prices[p.ID] = *p
		return nil
	})
}

func (r *PriceRepo) GetByID(ctx context.Context, id string) (*entity.ProductPrice, error) {
	var out *entity.ProductPrice
	err := r.store.view(r.tx, func(st *state) error {
		if p, ok := st.prices[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *PriceRepo) Update(ctx context.Context, p *entity.ProductPrice) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.prices[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.prices[p.ID] = *p
		return nil
	})
}

func (r *PriceRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.prices[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.prices, id)
		return nil
	})
}

func (r *PriceRepo) ListByProduct(ctx context.Context, productID string) ([]entity.ProductPrice, error) {
	out := []entity.ProductPrice{}
	err := r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("prices.list"); err != nil {
			return err
		}
		for _, p := range st.prices {
			if p.ProductID == productID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// Agregado de stock
// ---------------------------------------------------------------------------

// StockSummaryRepo implementa repository.StockSummaryRepository.
type StockSummaryRepo struct {
	store *Store
	tx    *state
}

func (r *StockSummaryRepo) Get(ctx context.Context, productID string) (*entity.StockSummary, error) {
	var out *entity.StockSummary
	err := r.store.view(r.tx, func(st *state) error {
		if s, ok := st.summaries[productID]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// GetForUpdate crea la fila en cero si no existe, igual que el INSERT ... ON CONFLICT de PostgreSQL.
func (r *StockSummaryRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockSummary, error) {
	var out *entity.StockSummary
	err := r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("stock_summaries.get_for_update"); err != nil {
			return err
		}
		s, ok := st.summaries[productID]
		if !ok {
			if _, exists := st.products[productID]; !exists {
				return domain.ErrNotFound
			}
			s = entity.StockSummary{ProductID: productID, UpdatedAt: time.Now()}
			st.summaries[productID] = s
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *StockSummaryRepo) Save(ctx context.Context, s *entity.StockSummary) error {
	return r.store.view(r.tx, func(st *state) error {
		if err := r.store.takeFault("stock_summaries.save"); err != nil {
			return err
		}
		if s.AvailableQuantity < 0 {
			return domain.ErrInsufficientStock
		}
		st.summaries[s.ProductID] = *s
		return nil
	})
}

func (r *StockSummaryRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockSummary, error) {
	var out []*entity.StockSummary
	err := r.store.view(r.tx, func(st *state) error {
		all := sortedValues(st.summaries, func(a, b entity.StockSummary) bool {
			return a.ProductID < b.ProductID
		})
		for _, s := range paginate(all, limit, offset) {
			s := s
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

func (r *StockSummaryRepo) ListExpiringBefore(ctx context.Context, limit time.Time) ([]*entity.StockSummary, error) {
	var out []*entity.StockSummary
	err := r.store.view(r.tx, func(st *state) error {
		// Se filtra antes de ordenar: todas las filas restantes tienen fecha y el orden es total.
		due := make(map[string]entity.StockSummary)
		for id, s := range st.summaries {
			if s.AvailableQuantity <= 0 || s.NextToExpire == nil || s.NextToExpire.After(limit) {
				continue
			}
			due[id] = s
		}
		for _, s := range sortedValues(due, func(a, b entity.StockSummary) bool {
			if !a.NextToExpire.Equal(*b.NextToExpire) {
				return a.NextToExpire.Before(*b.NextToExpire)
			}
			return a.ProductID < b.ProductID
		}) {
			s := s
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// Usuarios
// ---------------------------------------------------------------------------

// UserRepo implementa repository.UserRepository.
type UserRepo struct {
	store *Store
	tx    *state
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	return r.store.view(r.tx, func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return domain.ErrEmailAlreadyExists
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.store.view(r.tx, func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.store.view(r.tx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

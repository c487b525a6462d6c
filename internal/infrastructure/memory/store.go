// Package memory implementa todos los puertos de persistencia en memoria del proceso.
//
// Se usa en tests y en modo desarrollo (STORAGE=memory). Las transacciones trabajan sobre una
// copia del estado que solo se publica en el commit, así que un error o una cancelación dentro de
// Run no deja escrituras a medias. Un mutex serializa las transacciones: sirve para un solo
// proceso; con varias instancias hay que usar el adaptador de PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*Store)(nil)

type state struct {
	products  map[string]entity.Product
	suppliers map[string]entity.Supplier
	purchases map[string]entity.Purchase
	sales     map[string]entity.Sale
	prices    map[string]entity.ProductPrice
	summaries map[string]entity.StockSummary
	users     map[string]entity.User
}

func newState() *state {
	return &state{
		products:  map[string]entity.Product{},
		suppliers: map[string]entity.Supplier{},
		purchases: map[string]entity.Purchase{},
		sales:     map[string]entity.Sale{},
		prices:    map[string]entity.ProductPrice{},
		summaries: map[string]entity.StockSummary{},
		users:     map[string]entity.User{},
	}
}

// clone copia los mapas. Los punteros internos (fechas, decimales) no se mutan in-place en
// ningún punto del código, así que basta con copiar los structs.
func (s *state) clone() *state {
	return &state{
		products:  cloneMap(s.products),
		suppliers: cloneMap(s.suppliers),
		purchases: cloneMap(s.purchases),
		sales:     cloneMap(s.sales),
		prices:    cloneMap(s.prices),
		summaries: cloneMap(s.summaries),
		users:     cloneMap(s.users),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type fault struct {
	err       error
	remaining int // < 0 = siempre
}

// Store estado en memoria + TxRunner.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]*fault
}

// New crea un store vacío.
func New() *Store {
	return &Store{st: newState(), faults: map[string]*fault{}}
}

// InjectFault hace que la operación op (ej. "stock_summaries.save", "purchases.create",
// "tx.commit") falle con err las próximas times veces; times < 0 la hace fallar siempre.
func (s *Store) InjectFault(op string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{err: err, remaining: times}
}

// ClearFaults elimina los fallos inyectados.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]*fault{}
}

// takeFault debe llamarse con s.mu tomado.
func (s *Store) takeFault(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.remaining == 0 {
		delete(s.faults, op)
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn termina sin error
// y el contexto sigue vivo.
func (s *Store) Run(ctx context.Context, fn func(
	purchaseRepo repository.PurchaseRepository,
	saleRepo repository.SaleRepository,
	summaryRepo repository.StockSummaryRepository,
	productRepo repository.ProductRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := s.st.clone()
	if err := fn(
		&PurchaseRepo{store: s, tx: staged},
		&SaleRepo{store: s, tx: staged},
		&StockSummaryRepo{store: s, tx: staged},
		&ProductRepo{store: s, tx: staged},
	); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.takeFault("tx.commit"); err != nil {
		return err
	}
	s.st = staged
	return nil
}

// Repositorios fuera de transacción (cada llamada toma el lock).

func (s *Store) Products() *ProductRepo             { return &ProductRepo{store: s} }
func (s *Store) Suppliers() *SupplierRepo           { return &SupplierRepo{store: s} }
func (s *Store) Purchases() *PurchaseRepo           { return &PurchaseRepo{store: s} }
func (s *Store) Sales() *SaleRepo                   { return &SaleRepo{store: s} }
func (s *Store) Prices() *PriceRepo                 { return &PriceRepo{store: s} }
func (s *Store) StockSummaries() *StockSummaryRepo { return &StockSummaryRepo{store: s} }
func (s *Store) Users() *UserRepo                   { return &UserRepo{store: s} }

// view ejecuta fn sobre el estado de la tx o, fuera de ella, sobre el estado vivo con lock.
func (s *Store) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func sortedValues[V any](m map[string]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

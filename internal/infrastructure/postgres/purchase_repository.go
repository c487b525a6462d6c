package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo persistencia de compras. Dentro de TxRunner recibe la tx como Querier.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador. Pasar pool o tx.
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

const purchaseColumns = `id, product_id, supplier_id, quantity, unit_cost, expiration_date, purchased_at, created_by, created_at, updated_at`

// Create inserta la compra. Producto o proveedor inexistente → domain.ErrNotFound.
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	query := `INSERT INTO purchases (` + purchaseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ProductID, p.SupplierID, p.Quantity, p.UnitCost, p.ExpirationDate,
		p.PurchasedAt, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteError("insert purchase", err, domain.ErrNotFound)
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la compra hasta el fin de la transacción.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseRepo) get(ctx context.Context, query, id string) (*entity.Purchase, error) {
	p, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError("get purchase", err)
	}
	return p, nil
}

// Update reescribe los campos editables. El producto de una compra no cambia.
func (r *PurchaseRepo) Update(ctx context.Context, p *entity.Purchase) error {
	query := `
		UPDATE purchases
		SET supplier_id = $2, quantity = $3, unit_cost = $4, expiration_date = $5,
		    purchased_at = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.SupplierID, p.Quantity, p.UnitCost, p.ExpirationDate, p.PurchasedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update purchase", err, domain.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return mapWriteError("delete purchase", err, domain.ErrConflict)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List compras filtradas, de la más reciente a la más antigua.
func (r *PurchaseRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Purchase, error) {
	where, args := movementWhere(f, "purchased_at")
	page, args := pageClause(f, args)
	query := `SELECT ` + purchaseColumns + ` FROM purchases` + where + ` ORDER BY purchased_at DESC, id` + page
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	var list []*entity.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Totals suma de cantidades y vencimiento mínimo de las compras del producto.
func (r *PurchaseRepo) Totals(ctx context.Context, productID string) (int64, *time.Time, error) {
	var qty int64
	var earliest *time.Time
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), MIN(expiration_date)
		FROM purchases
		WHERE product_id = $1`, productID).Scan(&qty, &earliest)
	if err != nil {
		return 0, nil, mapReadError("purchase totals", err)
	}
	return qty, earliest, nil
}

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	err := row.Scan(
		&p.ID, &p.ProductID, &p.SupplierID, &p.Quantity, &p.UnitCost, &p.ExpirationDate,
		&p.PurchasedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

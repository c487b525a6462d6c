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

var _ repository.PriceRepository = (*PriceRepo)(nil)

// PriceRepo historial de precios sobre PostgreSQL.
type PriceRepo struct {
	q Querier
}

// NewPriceRepository construye el adaptador. Pasar pool o tx.
func NewPriceRepository(q Querier) *PriceRepo {
	return &PriceRepo{q: q}
}

const priceColumns = `id, product_id, price, effective_at, created_at`

// Create inserta la fila. Los instantes se truncan a microsegundos (precisión de timestamptz)
// para que el desempate por created_at sea el mismo antes y después de releer.
func (r *PriceRepo) Create(ctx context.Context, p *entity.ProductPrice) error {
	p.EffectiveAt = p.EffectiveAt.Truncate(time.Microsecond)
	p.CreatedAt = p.CreatedAt.Truncate(time.Microsecond)
	_, err := r.q.Exec(ctx, `INSERT INTO product_prices (`+priceColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.ProductID, p.Price, p.EffectiveAt, p.CreatedAt,
	)
	return mapWriteError("insert price", err, domain.ErrNotFound)
}

func (r *PriceRepo) GetByID(ctx context.Context, id string) (*entity.ProductPrice, error) {
	p, err := scanPrice(r.q.QueryRow(ctx, `SELECT `+priceColumns+` FROM product_prices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError("get price", err)
	}
	return p, nil
}

func (r *PriceRepo) Update(ctx context.Context, p *entity.ProductPrice) error {
	p.EffectiveAt = p.EffectiveAt.Truncate(time.Microsecond)
	tag, err := r.q.Exec(ctx, `UPDATE product_prices SET price = $2, effective_at = $3 WHERE id = $1`,
		p.ID, p.Price, p.EffectiveAt,
	)
	if err != nil {
		return mapWriteError("update price", err, domain.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PriceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM product_prices WHERE id = $1`, id)
	if err != nil {
		return mapWriteError("delete price", err, domain.ErrConflict)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByProduct devuelve el historial completo en el orden del índice (vigencia, creación e id descendentes).
func (r *PriceRepo) ListByProduct(ctx context.Context, productID string) ([]entity.ProductPrice, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+priceColumns+`
		FROM product_prices
		WHERE product_id = $1
		ORDER BY effective_at DESC, created_at DESC, id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()
	var list []entity.ProductPrice
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func scanPrice(row pgx.Row) (*entity.ProductPrice, error) {
	var p entity.ProductPrice
	if err := row.Scan(&p.ID, &p.ProductID, &p.Price, &p.EffectiveAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

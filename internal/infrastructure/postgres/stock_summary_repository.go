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

var _ repository.StockSummaryRepository = (*StockSummaryRepo)(nil)

// StockSummaryRepo agregado de stock por producto sobre PostgreSQL.
type StockSummaryRepo struct {
	q Querier
}

// NewStockSummaryRepository construye el adaptador. GetForUpdate requiere una tx como Querier.
func NewStockSummaryRepository(q Querier) *StockSummaryRepo {
	return &StockSummaryRepo{q: q}
}

const summaryColumns = `product_id, available_quantity, next_to_expire, updated_at`

// Get devuelve (nil, nil) si el producto no tiene agregado todavía.
func (r *StockSummaryRepo) Get(ctx context.Context, productID string) (*entity.StockSummary, error) {
	s, err := scanSummary(r.q.QueryRow(ctx, `SELECT `+summaryColumns+` FROM stock_summaries WHERE product_id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError("get stock summary", err)
	}
	return s, nil
}

// GetForUpdate crea la fila en cero si falta y la bloquea (SELECT FOR UPDATE).
// Si dos tx la crean a la vez, la segunda espera al índice único y no inserta nada.
func (r *StockSummaryRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockSummary, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_summaries (product_id, available_quantity, updated_at)
		VALUES ($1, 0, now())
		ON CONFLICT (product_id) DO NOTHING`, productID)
	if err != nil {
		return nil, mapWriteError("init stock summary", err, domain.ErrNotFound)
	}
	s, err := scanSummary(r.q.QueryRow(ctx, `SELECT `+summaryColumns+` FROM stock_summaries WHERE product_id = $1 FOR UPDATE`, productID))
	if err != nil {
		return nil, mapReadError("lock stock summary", err)
	}
	return s, nil
}

// Save upsert del agregado. La CHECK available_quantity >= 0 se traduce a ErrInsufficientStock.
func (r *StockSummaryRepo) Save(ctx context.Context, s *entity.StockSummary) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_summaries (`+summaryColumns+`)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE
		SET available_quantity = EXCLUDED.available_quantity,
		    next_to_expire     = EXCLUDED.next_to_expire,
		    updated_at         = EXCLUDED.updated_at`,
		s.ProductID, s.AvailableQuantity, s.NextToExpire, s.UpdatedAt,
	)
	if pgCode(err) == codeCheckViolation {
		return domain.ErrInsufficientStock
	}
	return mapWriteError("save stock summary", err, domain.ErrNotFound)
}

func (r *StockSummaryRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockSummary, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, `
		SELECT `+summaryColumns+`
		FROM stock_summaries
		ORDER BY product_id
		LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *StockSummaryRepo) ListExpiringBefore(ctx context.Context, limit time.Time) ([]*entity.StockSummary, error) {
	return r.list(ctx, `
		SELECT `+summaryColumns+`
		FROM stock_summaries
		WHERE available_quantity > 0 AND next_to_expire IS NOT NULL AND next_to_expire <= $1
		ORDER BY next_to_expire, product_id`, limit)
}

func (r *StockSummaryRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockSummary, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock summaries: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock summary: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSummary(row pgx.Row) (*entity.StockSummary, error) {
	var s entity.StockSummary
	if err := row.Scan(&s.ProductID, &s.AvailableQuantity, &s.NextToExpire, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

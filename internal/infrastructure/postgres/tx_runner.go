package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-api/internal/application/ledger"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/pkg/config"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Con read_committed la serialización por producto la dan los SELECT ... FOR UPDATE de los repos;
// con serializable además el motor aborta (40001) lo que no pueda ordenar.
type TxRunner struct {
	pool        *pgxpool.Pool
	isoLevel    pgx.TxIsoLevel
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool y la política de aislamiento configurada.
func NewTxRunner(pool *pgxpool.Pool, cfg config.DBConfig) *TxRunner {
	iso := pgx.ReadCommitted
	if cfg.TxIsolation == "serializable" {
		iso = pgx.Serializable
	}
	return &TxRunner{pool: pool, isoLevel: iso, lockTimeout: cfg.LockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los fallos de serialización, deadlock o lock_timeout salen como domain.ErrConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(
	purchaseRepo repository.PurchaseRepository,
	saleRepo repository.SaleRepository,
	summaryRepo repository.StockSummaryRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.isoLevel})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		// SET no admite parámetros; el valor es un entero nuestro.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(
		NewPurchaseRepository(tx),
		NewSaleRepository(tx),
		NewStockSummaryRepository(tx),
		NewProductRepository(tx),
	); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: commit: %v", domain.ErrConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

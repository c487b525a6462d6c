package postgres

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// movementWhere arma el WHERE común de compras y ventas; timeCol es la columna de fecha del movimiento.
// Devuelve la cláusula (vacía si no hay filtros) y los argumentos posicionales.
func movementWhere(f repository.MovementFilter, timeCol string) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.From != nil {
		add(timeCol+" >= $%d", *f.From)
	}
	if f.To != nil {
		add(timeCol+" <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// pageClause agrega LIMIT/OFFSET a continuación de args.
func pageClause(f repository.MovementFilter, args []any) (string, []any) {
	limit, offset := clampPage(f.Limit, f.Offset)
	args = append(args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

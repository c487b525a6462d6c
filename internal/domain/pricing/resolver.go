// Package pricing resuelve qué fila del historial de precios rige en un instante dado.
//
// Orden canónico del historial (total y determinista):
//
//	effective_at DESC, created_at DESC, id DESC
//
// El precio vigente en asOf es la primera fila, en ese orden, con effective_at <= asOf
// (límite inclusivo). Si dos filas comparten effective_at gana la creada más tarde; si también
// comparten created_at gana el id mayor.
package pricing

import (
	"sort"
	"time"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// Status anotación de lectura; nunca se persiste.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Newer indica si a precede a b en el orden canónico.
func Newer(a, b entity.ProductPrice) bool {
	if !a.EffectiveAt.Equal(b.EffectiveAt) {
		return a.EffectiveAt.After(b.EffectiveAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortHistory ordena in-place el historial en orden canónico (más reciente primero).
func SortHistory(prices []entity.ProductPrice) {
	sort.SliceStable(prices, func(i, j int) bool { return Newer(prices[i], prices[j]) })
}

// ActiveIndex devuelve la posición del precio vigente en asOf dentro de un historial ya ordenado
// con SortHistory, o -1 si ninguno rige todavía.
func ActiveIndex(sorted []entity.ProductPrice, asOf time.Time) int {
	for i := range sorted {
		if !sorted[i].EffectiveAt.After(asOf) {
			return i
		}
	}
	return -1
}

// SelectActive devuelve el precio vigente en asOf sin modificar el slice recibido.
func SelectActive(prices []entity.ProductPrice, asOf time.Time) (*entity.ProductPrice, bool) {
	var best *entity.ProductPrice
	for i := range prices {
		p := prices[i]
		if p.EffectiveAt.After(asOf) {
			continue
		}
		if best == nil || Newer(p, *best) {
			best = &p
		}
	}
	return best, best != nil
}

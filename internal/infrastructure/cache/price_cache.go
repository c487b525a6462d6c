package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-api/internal/application/pricing"
	"github.com/jhoicas/stock-api/internal/domain/entity"
)

var _ pricing.HistoryCache = (*PriceHistoryCache)(nil)

// DefaultPrefix prefijo de las claves del historial de precios.
const DefaultPrefix = "stock-api:prices:"

// PriceHistoryCache guarda el historial ordenado de cada producto como JSON bajo
// prefix+"h:"+productID+":"+versión. La versión vive en prefix+"v:"+productID, sin TTL.
type PriceHistoryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  Stats
}

// Stats contadores de uso de la caché.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// NewPriceHistoryCache construye la caché. ttl <= 0 deja las claves sin expiración.
func NewPriceHistoryCache(client *redis.Client, prefix string, ttl time.Duration) *PriceHistoryCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &PriceHistoryCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *PriceHistoryCache) versionKey(productID string) string {
	return c.prefix + "v:" + productID
}

func (c *PriceHistoryCache) key(productID string, version int64) string {
	return c.prefix + "h:" + productID + ":" + strconv.FormatInt(version, 10)
}

// Version devuelve la versión actual del historial; 0 si el producto nunca se invalidó.
func (c *PriceHistoryCache) Version(ctx context.Context, productID string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(productID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

// Get devuelve (historial, true, nil) en un hit y (nil, false, nil) en un miss.
func (c *PriceHistoryCache) Get(ctx context.Context, productID string, version int64) ([]entity.ProductPrice, bool, error) {
	data, err := c.client.Get(ctx, c.key(productID, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Misses, 1)
			return nil, false, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var history []entity.ProductPrice
	if err := json.Unmarshal(data, &history); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return nil, false, fmt.Errorf("cache unmarshal: %w", err)
	}
	atomic.AddUint64(&c.stats.Hits, 1)
	return history, true, nil
}

// Set guarda el historial leído bajo version. Un historial vacío también se cachea:
// evita releer productos sin precios.
func (c *PriceHistoryCache) Set(ctx context.Context, productID string, version int64, history []entity.ProductPrice) error {
	if history == nil {
		history = []entity.ProductPrice{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.key(productID, version), data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set: %w", err)
	}
	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

// Invalidate incrementa la versión del producto; la clave anterior queda inalcanzable y se borra.
// Un Set tardío con la versión vieja nunca la vuelve a publicar.
func (c *PriceHistoryCache) Invalidate(ctx context.Context, productID string) error {
	v, err := c.client.Incr(ctx, c.versionKey(productID)).Result()
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache invalidate: %w", err)
	}
	atomic.AddUint64(&c.stats.Deletes, 1)
	if err := c.client.Del(ctx, c.key(productID, v-1)).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Stats copia de los contadores actuales.
func (c *PriceHistoryCache) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadUint64(&c.stats.Hits),
		Misses:  atomic.LoadUint64(&c.stats.Misses),
		Sets:    atomic.LoadUint64(&c.stats.Sets),
		Deletes: atomic.LoadUint64(&c.stats.Deletes),
		Errors:  atomic.LoadUint64(&c.stats.Errors),
	}
}

// Ping verifica la conexión (health check).
func (c *PriceHistoryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

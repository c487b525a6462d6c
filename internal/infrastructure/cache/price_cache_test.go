package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// Requiere Redis en TEST_REDIS_ADDR (por defecto localhost:6379); si no responde, se omite.
func setupCache(t *testing.T) *PriceHistoryCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis no disponible en %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	// La versión no expira: prefijo único por ejecución y limpieza al final.
	prefix := fmt.Sprintf("test:%s:%d:", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			_ = client.Del(context.Background(), keys...).Err()
		}
		_ = client.Close()
	})
	return NewPriceHistoryCache(client, prefix, time.Minute)
}

func onePrice(productID, price string, eff time.Time) []entity.ProductPrice {
	return []entity.ProductPrice{{ID: "a-" + price, ProductID: productID, Price: decimal.RequireFromString(price), EffectiveAt: eff, CreatedAt: eff}}
}

func TestPriceHistoryCache_MissSetHitInvalidate(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	v, err := c.Version(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, found, err := c.Get(ctx, "p1", v)
	require.NoError(t, err)
	assert.False(t, found)

	eff := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "p1", v, onePrice("p1", "12.50", eff)))

	got, found, err := c.Get(ctx, "p1", v)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, got[0].EffectiveAt.Equal(eff))

	require.NoError(t, c.Invalidate(ctx, "p1"))
	v2, err := c.Version(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, v+1, v2)
	_, found, err = c.Get(ctx, "p1", v2)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = c.Get(ctx, "p1", v)
	require.NoError(t, err)
	assert.False(t, found, "la clave de la versión anterior se borra")

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(3), st.Misses)
	assert.Equal(t, uint64(1), st.Deletes)
}

// Una lectura que empezó antes de la escritura guarda su historial con la versión vieja:
// las consultas posteriores a la invalidación no lo ven.
func TestPriceHistoryCache_SetTardioNoPublicaHistorialViejo(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	eff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	before, err := c.Version(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, "p1"))
	require.NoError(t, c.Set(ctx, "p1", before, onePrice("p1", "10", eff)))

	now, err := c.Version(ctx, "p1")
	require.NoError(t, err)
	require.NotEqual(t, before, now)
	_, found, err := c.Get(ctx, "p1", now)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "p1", now, onePrice("p1", "20", eff)))
	got, found, err := c.Get(ctx, "p1", now)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(20)))
}

func TestPriceHistoryCache_HistorialVacioEsHit(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "vacio", 0, nil))
	got, found, err := c.Get(ctx, "vacio", 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}

func TestSplitAddr(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port int
	}{
		{"redis:6380", "redis", 6380},
		{":6379", "127.0.0.1", 6379},
		{"sin-puerto", "127.0.0.1", 6379},
		{"redis:abc", "redis", 6379},
	}
	for _, c := range cases {
		host, port := splitAddr(c.in)
		assert.Equal(t, c.host, host, c.in)
		assert.Equal(t, c.port, port, c.in)
	}
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, StoragePostgres, cfg.App.Storage)
	assert.Equal(t, "read_committed", cfg.DB.TxIsolation)
	assert.Equal(t, 3*time.Second, cfg.DB.LockTimeout)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 3, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.RetryBackoff)
	assert.False(t, cfg.Redis.Enabled(), "sin REDIS_ADDR la caché queda desactivada")
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE", "MEMORY")
	v.Set("LEDGER_MAX_ATTEMPTS", "2")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("DB_TX_ISOLATION", "serializable")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.App.Storage)
	assert.Equal(t, 2, cfg.Ledger.MaxAttempts)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "serializable", cfg.DB.TxIsolation)
}

func TestFromViper_RechazaValoresInvalidos(t *testing.T) {
	cases := map[string][2]string{
		"storage desconocido": {"STORAGE", "mongo"},
		"aislamiento":         {"DB_TX_ISOLATION", "repeatable_read"},
		"reintentos cero":     {"LEDGER_MAX_ATTEMPTS", "0"},
		"reintentos exceso":   {"LEDGER_MAX_ATTEMPTS", "9"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			v.Set(kv[0], kv[1])
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_DSNCodificaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/stock?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

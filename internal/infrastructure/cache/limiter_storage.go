package cache

import (
	"net"
	"strconv"

	fiberredis "github.com/gofiber/storage/redis/v3"

	"github.com/jhoicas/stock-api/pkg/config"
)

// NewLimiterStorage storage compartido para el limitador de login: con varias réplicas
// los intentos se cuentan una sola vez. Llamar solo después de validar la conexión
// (el constructor de gofiber/storage entra en pánico si Redis no responde).
func NewLimiterStorage(cfg config.RedisConfig) *fiberredis.Storage {
	host, port := splitAddr(cfg.Addr)
	return fiberredis.New(fiberredis.Config{
		Host:     host,
		Port:     port,
		Password: cfg.Password,
		Database: cfg.DB,
	})
}

// splitAddr separa "host:port"; valores inválidos caen en 127.0.0.1:6379.
func splitAddr(addr string) (string, int) {
	const (
		defaultHost = "127.0.0.1"
		defaultPort = 6379
	)
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}

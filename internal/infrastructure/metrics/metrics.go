// Package metrics registra las métricas Prometheus del servicio: HTTP y libro de stock.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-api/internal/application/ledger"
)

var _ ledger.Metrics = (*Metrics)(nil)

// Metrics agrupa los colectores sobre un registry propio (no el global).
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LedgerOperations    *prometheus.CounterVec
	LedgerRetries       *prometheus.CounterVec
}

// New registra los colectores con el prefijo dado (ej. "stock_api").
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_ledger_operations_total",
				Help: "Stock ledger operations by result",
			},
			[]string{"operation", "result"},
		),
		LedgerRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_ledger_conflict_retries_total",
				Help: "Transactions retried after a serialization or lock conflict",
			},
			[]string{"operation"},
		),
	}
}

// ObserveOperation implementa ledger.Metrics.
func (m *Metrics) ObserveOperation(op, result string) {
	m.LedgerOperations.WithLabelValues(op, result).Inc()
}

// ObserveConflictRetry implementa ledger.Metrics.
func (m *Metrics) ObserveConflictRetry(op string) {
	m.LedgerRetries.WithLabelValues(op).Inc()
}

// Handler expone el registry en formato Prometheus (net/http; montar con adaptor en Fiber).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware mide cada request. El path es la ruta registrada (/api/products/:id), no la URL cruda.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < 400 {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

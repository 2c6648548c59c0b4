// Package metrics содержит метрики Prometheus прогона проверки и тестового стенда.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry объединяет реестр Prometheus и метрики, которые в нём зарегистрированы.
type Registry struct {
	reg *prometheus.Registry

	Purchases         *prometheus.CounterVec
	Reconciliations   *prometheus.CounterVec
	PurchaseLatency   prometheus.Histogram
	OrdersBeforeToday prometheus.Gauge

	SandboxPurchases *prometheus.CounterVec
}

// NewRegistry создаёт реестр со всеми метриками.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelcheck_purchases_total",
		Help: "Classified purchase responses by status.",
	}, []string{"status"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelcheck_reconciliations_total",
		Help: "Order reconciliation checks by check and result.",
	}, []string{"check", "result"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fuelcheck_purchase_latency_seconds",
		Help:    "Latency of purchase calls.",
		Buckets: prometheus.DefBuckets,
	})
	before := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fuelcheck_orders_before_today",
		Help: "Orders created before the current UTC day.",
	})
	sandbox := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sandbox_purchases_total",
		Help: "Purchases accepted by the sandbox service by fuel.",
	}, []string{"fuel"})

	r.MustRegister(purchases, reconciliations, latency, before, sandbox)

	return &Registry{
		reg:               r,
		Purchases:         purchases,
		Reconciliations:   reconciliations,
		PurchaseLatency:   latency,
		OrdersBeforeToday: before,
		SandboxPurchases:  sandbox,
	}
}

// Gatherer возвращает реестр для чтения метрик.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler отдаёт метрики в текстовом формате Prometheus.
func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Push отправляет метрики прогона в Pushgateway.
func (r *Registry) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwangaza/sharewallet/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	TransactionsTotal   *prometheus.CounterVec
	ExchangesTotal      prometheus.Counter
	ValidationFailures  *prometheus.CounterVec
	PendingTransactions prometheus.Gauge

	registry *prometheus.Registry
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "transactions_total",
			Help:      "Total transactions created",
		}, []string{"type"}),
		ExchangesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "exchanges_total",
			Help:      "Total currency exchanges executed",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "validation_failures_total",
			Help:      "Total validation rejections",
		}, []string{"kind"}),
		PendingTransactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wallet",
			Subsystem: serviceName,
			Name:      "pending_transactions",
			Help:      "Transactions currently in pending state",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.TransactionsTotal,
		m.ExchangesTotal,
		m.ValidationFailures,
		m.PendingTransactions,
	)

	return m
}

// ExposeHTTP 在独立端口暴露 /metrics
func (m *Metrics) ExposeHTTP(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Metrics server starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(context.Background(), "Metrics server exited", "error", err)
	}
}

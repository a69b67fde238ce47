package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ingestion and dashboard collectors
type Metrics struct {
	uploads          *prometheus.CounterVec
	rows             *prometheus.CounterVec
	uploadDuration   prometheus.Histogram
	dashboardCache   *prometheus.CounterVec
	dashboardLatency prometheus.Histogram
	storedOrders     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with registerer.
// A nil registerer uses the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_analytics_uploads_total",
			Help: "Order uploads by final status.",
		}, []string{"status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_analytics_rows_total",
			Help: "Upload rows by outcome (ingested, failed, skipped).",
		}, []string{"outcome"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_analytics_upload_duration_seconds",
			Help:    "Wall time to ingest one upload.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		dashboardCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_analytics_dashboard_cache_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"}),
		dashboardLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_analytics_dashboard_duration_seconds",
			Help:    "Time to compute dashboard metrics.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		storedOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "order_analytics_stored_orders",
			Help: "Orders in the current dataset.",
		}),
	}

	registerer.MustRegister(
		m.uploads,
		m.rows,
		m.uploadDuration,
		m.dashboardCache,
		m.dashboardLatency,
		m.storedOrders,
	)
	return m
}

// ObserveUpload records the outcome of one upload. Nil receivers are no-ops
// so components can run without metrics in tests.
func (m *Metrics) ObserveUpload(success bool, ingested, failed, skipped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "succeeded"
		m.storedOrders.Set(float64(ingested))
	}
	m.uploads.WithLabelValues(status).Inc()
	m.rows.WithLabelValues("ingested").Add(float64(ingested))
	m.rows.WithLabelValues("failed").Add(float64(failed))
	m.rows.WithLabelValues("skipped").Add(float64(skipped))
	m.uploadDuration.Observe(elapsed.Seconds())
}

// ObserveDashboard records one dashboard request
func (m *Metrics) ObserveDashboard(cacheResult string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dashboardCache.WithLabelValues(cacheResult).Inc()
	m.dashboardLatency.Observe(elapsed.Seconds())
}

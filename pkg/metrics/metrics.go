// Package metrics exposes Prometheus collectors for the invoice import pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoices"

// File outcomes recorded by ObserveFile.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// ImportMetrics groups the collectors updated by the import service.
// A nil *ImportMetrics is valid and records nothing.
type ImportMetrics struct {
	Files         *prometheus.CounterVec
	Invoices      *prometheus.CounterVec
	Items         *prometheus.CounterVec
	ParseDuration *prometheus.HistogramVec
	LastSync      prometheus.Gauge
}

// NewImportMetrics creates the collectors and registers them with reg.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Invoice files seen by directory sync, by outcome.",
		}, []string{"outcome"}),
		Invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_total",
			Help:      "Invoices parsed, by vendor.",
		}, []string{"vendor"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Invoice line items parsed, by category.",
		}, []string{"category"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time to tokenize and parse one PDF.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"vendor"}),
		LastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last completed directory sync.",
		}),
	}

	reg.MustRegister(m.Files, m.Invoices, m.Items, m.ParseDuration, m.LastSync)
	return m
}

// ObserveFile counts one file outcome.
func (m *ImportMetrics) ObserveFile(outcome string) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(outcome).Inc()
}

// ObserveParse records a successful parse. categories holds one entry per item.
func (m *ImportMetrics) ObserveParse(vendor string, elapsed time.Duration, invoices int, categories []string) {
	if m == nil {
		return
	}
	m.ParseDuration.WithLabelValues(vendor).Observe(elapsed.Seconds())
	m.Invoices.WithLabelValues(vendor).Add(float64(invoices))
	for _, c := range categories {
		m.Items.WithLabelValues(c).Inc()
	}
}

// SyncCompleted stamps the last sync time.
func (m *ImportMetrics) SyncCompleted(at time.Time) {
	if m == nil {
		return
	}
	m.LastSync.Set(float64(at.Unix()))
}

// Handler serves the gathered metrics in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

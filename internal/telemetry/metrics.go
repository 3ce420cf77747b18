package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	PassesTotal         *prometheus.CounterVec
	ItemsTotal          *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	DeliveredPropagated *prometheus.CounterVec
	LabelsPrinted       *prometheus.CounterVec
	InvoicesSynced      *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PassesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couriersync_passes_total",
				Help: "Total reconciliation passes by courier, phase, and result",
			},
			[]string{"courier", "phase", "result"},
		),
		ItemsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couriersync_items_total",
				Help: "Total work items processed by courier and outcome",
			},
			[]string{"courier", "outcome"},
		),
		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "couriersync_remote_fetch_duration_seconds",
				Help:    "Remote status fetch duration in seconds by courier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"courier"},
		),
		DeliveredPropagated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couriersync_delivered_propagated_total",
				Help: "Orders propagated to the e-commerce delivered table by courier",
			},
			[]string{"courier"},
		),
		LabelsPrinted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couriersync_labels_printed_total",
				Help: "Labels dispatched to the print sink by courier",
			},
			[]string{"courier"},
		),
		InvoicesSynced: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couriersync_invoices_synced_total",
				Help: "Sales invoices pushed to the reporting backend by result",
			},
			[]string{"result"},
		),
	}
}

// RecordPass records a completed pass phase.
func (m *Metrics) RecordPass(courierName, phase, result string) {
	if m == nil {
		return
	}
	m.PassesTotal.WithLabelValues(courierName, phase, result).Inc()
}

// RecordItem records a work-item outcome.
func (m *Metrics) RecordItem(courierName, outcome string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(courierName, outcome).Inc()
}

// ObserveFetch records a remote fetch duration.
func (m *Metrics) ObserveFetch(courierName string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(courierName).Observe(seconds)
}

// RecordDelivered records a delivered-flag propagation.
func (m *Metrics) RecordDelivered(courierName string) {
	if m == nil {
		return
	}
	m.DeliveredPropagated.WithLabelValues(courierName).Inc()
}

// RecordLabelPrinted records a label dispatched to the print sink.
func (m *Metrics) RecordLabelPrinted(courierName string) {
	if m == nil {
		return
	}
	m.LabelsPrinted.WithLabelValues(courierName).Inc()
}

// RecordInvoice records a sales invoice push result.
func (m *Metrics) RecordInvoice(result string) {
	if m == nil {
		return
	}
	m.InvoicesSynced.WithLabelValues(result).Inc()
}

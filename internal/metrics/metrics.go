// Package metrics owns the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// Registry is a dedicated registry rather than the global default, so
	// New can be called more than once.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	bookingsCreated  *prometheus.CounterVec
	splitRollbacks   *prometheus.CounterVec
	statsDuration    *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	scheduledReports *prometheus.CounterVec
}

// New creates a dedicated registry and registers every collector in it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rentledger_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		bookingsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_booking_records_created_total",
				Help: "Booking records stored, by kind (whole, first, second).",
			},
			[]string{"kind"},
		),
		splitRollbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_split_rollbacks_total",
				Help: "Split bookings whose second half failed, by compensation outcome.",
			},
			[]string{"outcome"},
		),
		statsDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rentledger_statistics_duration_seconds",
				Help:    "Time spent fetching and aggregating statistics.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_external_errors_total",
				Help: "Errors returned by external services.",
			},
			[]string{"service"},
		),
		scheduledReports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_scheduled_reports_total",
				Help: "Month-close report runs by status.",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveRequest records the duration of an HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

// IncBookingRecord counts a stored booking record of the given kind.
func (m *Metrics) IncBookingRecord(kind string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(kind).Inc()
}

// IncSplitRollback counts a failed split write; outcome is "rolled_back" or "orphaned".
func (m *Metrics) IncSplitRollback(outcome string) {
	if m == nil {
		return
	}
	m.splitRollbacks.WithLabelValues(outcome).Inc()
}

// ObserveStatistics records the time spent producing statistics.
func (m *Metrics) ObserveStatistics(scope string, d time.Duration) {
	if m == nil {
		return
	}
	m.statsDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// IncExternalError increments the external error counter.
func (m *Metrics) IncExternalError(service string) {
	if m == nil {
		return
	}
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncScheduledReport counts a month-close run with its status.
func (m *Metrics) IncScheduledReport(status string) {
	if m == nil {
		return
	}
	m.scheduledReports.WithLabelValues(status).Inc()
}

// Package monitoring exposes Prometheus metrics for view computation, source
// loading and HTTP requests.
//
// Metrics are registered on a private registry so that several instances can
// coexist (one per server, one per test). A nil *Metrics is valid and records
// nothing.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bikeshare"

// Status labels of RecordOperation.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the collectors.
type Metrics struct {
	registry *prometheus.Registry

	viewDuration      *prometheus.HistogramVec
	viewsUnavailable  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	tableRows         *prometheus.GaugeVec
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		viewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_duration_seconds",
			Help:      "Time spent computing one view.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"view"}),
		viewsUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_unavailable_total",
			Help:      "Views that could not be computed, by reason.",
		}, []string{"view", "reason"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of load and export operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows in each loaded source table.",
		}, []string{"table"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.viewDuration,
		m.viewsUnavailable,
		m.operationDuration,
		m.tableRows,
		m.httpRequestsTotal,
		m.httpDuration,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveView records one view computation. It satisfies engine.Observer.
func (m *Metrics) ObserveView(name string, elapsed time.Duration, reason string) {
	if m == nil {
		return
	}
	m.viewDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if reason != "" {
		m.viewsUnavailable.WithLabelValues(name, reason).Inc()
	}
}

// SetTableRows records the size of a loaded table.
func (m *Metrics) SetTableRows(table string, rows int) {
	if m == nil {
		return
	}
	m.tableRows.WithLabelValues(table).Set(float64(rows))
}

// RecordOperation executes fn and records its duration under operation.
func (m *Metrics) RecordOperation(operation string, fn func() error) error {
	if m == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.operationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests to next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

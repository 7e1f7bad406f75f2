// Package metrics exposes Prometheus collectors for the admin backend.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jcc"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	registry       *prometheus.Registry
	storeOps       *prometheus.CounterVec
	allocRetries   *prometheus.CounterVec
	renumberRuns   *prometheus.CounterVec
	renumberedRows *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates collectors on a private registry that also carries the Go
// runtime collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store operations by table, operation and result.",
		}, []string{"table", "op", "result"}),
		allocRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "id_allocation_retries_total",
			Help:      "Inserts retried after an identifier collision.",
		}, []string{"table"}),
		renumberRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renumber_runs_total",
			Help:      "Department renumbering runs by result.",
		}, []string{"result"}),
		renumberedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renumber_rows_total",
			Help:      "Rows rewritten by department renumbering.",
		}, []string{"table"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		m.storeOps,
		m.allocRetries,
		m.renumberRuns,
		m.renumberedRows,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStore counts one store operation.
func (m *Metrics) ObserveStore(table, op string, err error) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(table, op, result(err)).Inc()
}

// AllocationRetried counts an insert retried after an identifier collision.
func (m *Metrics) AllocationRetried(table string) {
	if m == nil {
		return
	}
	m.allocRetries.WithLabelValues(table).Inc()
}

// ObserveRenumber records a renumbering run and the rows it rewrote.
func (m *Metrics) ObserveRenumber(departments, members int, err error) {
	if m == nil {
		return
	}
	m.renumberRuns.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.renumberedRows.WithLabelValues("departments").Add(float64(departments))
		m.renumberedRows.WithLabelValues("members").Add(float64(members))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

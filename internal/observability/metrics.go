package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	calculations       *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec
	jobRecords         *prometheus.CounterVec
	hierarchyEdges     prometheus.Histogram
	cyclesDetected     prometheus.Counter
	jobTransitions     *prometheus.CounterVec
	notifyFailures     prometheus.Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once.
func Init() *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// NewMetrics builds metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dc",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dc",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds by method/route.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dc",
			Subsystem: "scheduler",
			Name:      "calculations_total",
			Help:      "Calculate calls by scope (global/single) and outcome.",
		}, []string{"scope", "outcome"}),
		calculationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dc",
			Subsystem: "scheduler",
			Name:      "calculation_duration_seconds",
			Help:      "Calculate latency in seconds by scope.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"scope"}),
		jobRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dc",
			Subsystem: "scheduler",
			Name:      "job_records_created_total",
			Help:      "Job records created by status.",
		}, []string{"status"}),
		hierarchyEdges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dc",
			Subsystem: "scheduler",
			Name:      "hierarchy_edges",
			Help:      "Edge count of each dependency hierarchy scheduled.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		cyclesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dc",
			Subsystem: "scheduler",
			Name:      "cycles_detected_total",
			Help:      "Hierarchies whose sort reported a cycle.",
		}),
		jobTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dc",
			Subsystem: "jobs",
			Name:      "transitions_total",
			Help:      "Job record transitions reported by the execution engine.",
		}, []string{"status", "outcome"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dc",
			Subsystem: "jobs",
			Name:      "notify_failures_total",
			Help:      "Job events that could not be published.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.calculations,
		m.calculationLatency,
		m.jobRecords,
		m.hierarchyEdges,
		m.cyclesDetected,
		m.jobTransitions,
		m.notifyFailures,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveCalculation(scope, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(scope, outcome).Inc()
	m.calculationLatency.WithLabelValues(scope).Observe(dur.Seconds())
}

func (m *Metrics) AddJobRecords(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.jobRecords.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) ObserveHierarchy(edges int, cyclic bool) {
	if m == nil {
		return
	}
	m.hierarchyEdges.Observe(float64(edges))
	if cyclic {
		m.cyclesDetected.Inc()
	}
}

func (m *Metrics) IncJobTransition(status, outcome string) {
	if m == nil {
		return
	}
	m.jobTransitions.WithLabelValues(status, outcome).Inc()
}

func (m *Metrics) IncNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	cacheLookups    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	events          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheus builds a recorder with its own registry, including Go runtime
// and process collectors.
func NewPrometheus() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmanager_task_cache_lookups_total",
				Help: "Task cache lookups by result",
			},
			[]string{"result"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmanager_mutations_total",
				Help: "Committed writes by entity and operation",
			},
			[]string{"entity", "op"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmanager_task_events_total",
				Help: "Task lifecycle events by publish status",
			},
			[]string{"status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskmanager_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.cacheLookups,
		r.mutations,
		r.events,
		r.requestDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// IncTaskCacheHit counts a cache hit.
func (r *PrometheusRecorder) IncTaskCacheHit() {
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// IncTaskCacheMiss counts a cache miss.
func (r *PrometheusRecorder) IncTaskCacheMiss() {
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// IncMutation counts a committed write.
func (r *PrometheusRecorder) IncMutation(entity, op string) {
	r.mutations.WithLabelValues(entity, op).Inc()
}

// IncEventPublished counts a publish attempt by outcome.
func (r *PrometheusRecorder) IncEventPublished(status string) {
	r.events.WithLabelValues(status).Inc()
}

// ObserveRequest records request latency.
func (r *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	r.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

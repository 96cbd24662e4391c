// Package metrics exposes session and evaluation measurements to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicecalc/internal/domain"
)

type Collector struct {
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	stateTransitions   *prometheus.CounterVec
	droppedFinals      *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	sinkDrops          *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector registers every metric on a private registry so tests and
// multiple instances never collide on the global one.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{registry: reg}

	c.evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Expressions evaluated, by input source and outcome",
		},
		[]string{"source", "outcome"},
	)
	c.evaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one expression",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
		[]string{"source"},
	)
	c.stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_state_transitions_total",
			Help:      "Voice session state transitions",
		},
		[]string{"from", "to"},
	)
	c.droppedFinals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_finals_total",
			Help:      "Final transcripts ignored by the session",
		},
		[]string{"reason"},
	)
	c.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matcher_cache_lookups_total",
			Help:      "Compiled language matcher lookups",
		},
		[]string{"language", "result"},
	)
	c.sinkDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_dropped_events_total",
			Help:      "Events dropped because a sink queue was full",
		},
		[]string{"sink"},
	)
	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reg.MustRegister(
		c.evaluationsTotal,
		c.evaluationDuration,
		c.stateTransitions,
		c.droppedFinals,
		c.cacheLookups,
		c.sinkDrops,
		c.httpRequestsTotal,
		c.httpRequestDuration,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveEvaluation(src domain.SourceType, kind domain.ErrorKind, took time.Duration) {
	outcome := string(kind)
	if kind == domain.ErrorKindNone {
		outcome = "ok"
	}
	c.evaluationsTotal.WithLabelValues(string(src), outcome).Inc()
	c.evaluationDuration.WithLabelValues(string(src)).Observe(took.Seconds())
}

func (c *Collector) ObserveTransition(from, to domain.SessionState) {
	c.stateTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (c *Collector) ObserveDroppedFinal(reason string) {
	c.droppedFinals.WithLabelValues(reason).Inc()
}

func (c *Collector) ObserveCacheLookup(language string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(language, result).Inc()
}

func (c *Collector) ObserveSinkDrop(sink string) {
	c.sinkDrops.WithLabelValues(sink).Inc()
}

// Middleware records request counts and latency. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (c *Collector) Middleware(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		c.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the websocket upgrade needs for hijacking.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

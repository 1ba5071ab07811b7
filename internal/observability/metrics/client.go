package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics instruments the sync layer: cache traffic, optimistic
// mutation outcomes, and Resource API calls. A private registry keeps the
// exported set deliberate.
type ClientMetrics struct {
	registry *prometheus.Registry

	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheStaleServes *prometheus.CounterVec

	mutationsReconciled *prometheus.CounterVec
	mutationsRolledBack *prometheus.CounterVec

	apiRequestTotal    *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
}

func NewClientMetrics() *ClientMetrics {
	registry := prometheus.NewRegistry()

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easylaw",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Reads served from a fresh cache entry.",
		},
		[]string{"kind"},
	)
	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easylaw",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Reads that blocked on a network fetch.",
		},
		[]string{"kind"},
	)
	cacheStaleServes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easylaw",
			Subsystem: "cache",
			Name:      "stale_serves_total",
			Help:      "Reads served stale while refetching in the background.",
		},
		[]string{"kind"},
	)
	mutationsReconciled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easylaw",
			Subsystem: "mutations",
			Name:      "reconciled_total",
			Help:      "Optimistic mutations confirmed by the server.",
		},
		[]string{"kind"},
	)
	mutationsRolledBack := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easylaw",
			Subsystem: "mutations",
			Name:      "rolled_back_total",
			Help:      "Optimistic mutations rolled back after failure.",
		},
		[]string{"kind"},
	)
	apiRequestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easylaw",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Resource API requests by operation and status.",
		},
		[]string{"operation", "status"},
	)
	apiRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "easylaw",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Resource API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		cacheHits, cacheMisses, cacheStaleServes,
		mutationsReconciled, mutationsRolledBack,
		apiRequestTotal, apiRequestDuration,
	)

	return &ClientMetrics{
		registry:            registry,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		cacheStaleServes:    cacheStaleServes,
		mutationsReconciled: mutationsReconciled,
		mutationsRolledBack: mutationsRolledBack,
		apiRequestTotal:     apiRequestTotal,
		apiRequestDuration:  apiRequestDuration,
	}
}

func (m *ClientMetrics) CacheHit(kind string)        { m.cacheHits.WithLabelValues(kind).Inc() }
func (m *ClientMetrics) CacheMiss(kind string)       { m.cacheMisses.WithLabelValues(kind).Inc() }
func (m *ClientMetrics) CacheStaleServe(kind string) { m.cacheStaleServes.WithLabelValues(kind).Inc() }

func (m *ClientMetrics) MutationReconciled(kind string) {
	m.mutationsReconciled.WithLabelValues(kind).Inc()
}

func (m *ClientMetrics) MutationRolledBack(kind string) {
	m.mutationsRolledBack.WithLabelValues(kind).Inc()
}

func (m *ClientMetrics) APIRequest(operation string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.apiRequestTotal.WithLabelValues(operation, status).Inc()
	m.apiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler serves the registry; mounted only in long-running watch mode.
func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

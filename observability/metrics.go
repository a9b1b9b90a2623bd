package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record RPC
// handler activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = newModuleMetrics()
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
		)
	})
	return moduleRegistry
}

func newModuleMetrics() *moduleMetrics {
	return &moduleMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total RPC requests segmented by module, method and outcome.",
		}, []string{"module", "method", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "rpc",
			Name:      "errors_total",
			Help:      "Total RPC errors segmented by module, method and status code.",
		}, []string{"module", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "norifarm",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for RPC handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module", "method"}),
	}
}

// Observe records the outcome of a request. The status code should be the
// HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, strconv.Itoa(status)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// gatewayMetrics is the gateway's prometheus instrumentation. Each Server
// owns its registry so tests can build many servers.
type gatewayMetrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	toolResults  *prometheus.HistogramVec
}

func newGatewayMetrics() *gatewayMetrics {
	m := &gatewayMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nsequant",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nsequant",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nsequant",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Tool executions by tool and outcome",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nsequant",
			Subsystem: "tools",
			Name:      "duration_seconds",
			Help:      "Tool execution time in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"tool"}),
		toolResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nsequant",
			Subsystem: "tools",
			Name:      "result_entries",
			Help:      "Entries returned per ranking tool call",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"tool"}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.toolCalls, m.toolDuration, m.toolResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *gatewayMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

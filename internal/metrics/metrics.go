package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceMetrics holds the instrumentation for the chat service: HTTP
// request counters and latency, plus gauges for the live WebSocket
// state.
type ServiceMetrics struct {
	registry *prometheus.Registry

	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestTotal    *prometheus.CounterVec

	WSConnections prometheus.Gauge
	WSRooms       prometheus.Gauge
	WSEventsTotal *prometheus.CounterVec
}

func New() *ServiceMetrics {
	sm := &ServiceMetrics{registry: prometheus.NewRegistry()}

	sm.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	sm.HTTPRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	sm.WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Number of open WebSocket connections",
		},
	)

	sm.WSRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_rooms",
			Help: "Number of chat rooms with at least one live connection",
		},
	)

	sm.WSEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_total",
			Help: "WebSocket frames delivered to clients, by event type",
		},
		[]string{"type"},
	)

	sm.registry.MustRegister(
		sm.HTTPRequestDuration,
		sm.HTTPRequestTotal,
		sm.WSConnections,
		sm.WSRooms,
		sm.WSEventsTotal,
	)

	return sm
}

// GinMiddleware records request count and latency per route.
func (sm *ServiceMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		sm.HTTPRequestTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		sm.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint, status).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics scrape endpoint.
func (sm *ServiceMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(sm.registry, promhttp.HandlerOpts{})
}

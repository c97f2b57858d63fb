package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
)

// HTTPMetrics records per-request counters and latency for one service.
type HTTPMetrics struct {
	ServiceName string
	registered  bool
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	m := &HTTPMetrics{ServiceName: serviceName}
	m.register()
	return m
}

func (m *HTTPMetrics) register() {
	if !m.registered {
		prometheus.MustRegister(requestCounter)
		prometheus.MustRegister(requestDuration)
		m.registered = true
	}
}

// Middleware labels by the route pattern, not the raw URL, so ids do not
// explode cardinality.
func (m *HTTPMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		requestCounter.WithLabelValues(m.ServiceName, c.Method(), path, statusStr).Inc()
		requestDuration.WithLabelValues(m.ServiceName, c.Method(), path, statusStr).
			Observe(time.Since(start).Seconds())

		return err
	}
}

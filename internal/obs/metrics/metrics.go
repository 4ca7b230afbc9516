package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides a self-contained Prometheus registry with common HTTP
// metrics and a storage-operation counter. All methods are safe on a nil
// receiver so wiring stays optional in tests.
type Metrics struct {
	reg        *prometheus.Registry
	inflight   prometheus.Gauge
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	storageOps *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry and registers collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bucketversioning",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of inflight HTTP requests.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketversioning",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests processed, partitioned by status code and method.",
	}, []string{"code", "method"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bucketversioning",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Histogram of latencies for HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method"})
	storageOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketversioning",
		Subsystem: "storage",
		Name:      "operations_total",
		Help:      "Total number of object-store calls, partitioned by operation and outcome.",
	}, []string{"op", "outcome"})

	_ = reg.Register(inflight)
	_ = reg.Register(requests)
	_ = reg.Register(latency)
	_ = reg.Register(storageOps)

	return &Metrics{
		reg:        reg,
		inflight:   inflight,
		requests:   requests,
		latency:    latency,
		storageOps: storageOps,
	}
}

// Handler returns an http.Handler serving the internal registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware returns an echo middleware recording inflight count, request
// totals, and latency per status code and method.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			m.inflight.Inc()
			err := next(c)
			m.inflight.Dec()

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			code := strconv.Itoa(status)
			method := c.Request().Method
			m.requests.WithLabelValues(code, method).Inc()
			m.latency.WithLabelValues(code, method).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// StorageOp counts one object-store call.
func (m *Metrics) StorageOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storageOps.WithLabelValues(op, outcome).Inc()
}

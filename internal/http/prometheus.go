package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promMetrics is the registry served at /metrics. Each Server owns its own
// registry, so tests can build several servers in one process.
type promMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	embedded *prometheus.CounterVec
}

func newPromMetrics(d Dispatcher) *promMetrics {
	reg := prometheus.NewRegistry()
	m := &promMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedd_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		embedded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedd_embedded_items_total",
				Help: "Total input items embedded",
			},
			[]string{"embed_method", "embed_model"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.embedded,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "embedd_dispatch_queue_depth",
			Help: "Jobs waiting for a dispatcher worker",
		}, func() float64 { return float64(d.QueueDepth()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "embedd_dispatch_workers",
			Help: "Dispatcher worker count",
		}, func() float64 { return float64(d.Workers()) }),
	)
	return m
}

func (m *promMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *promMetrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		m.requests.WithLabelValues(
			c.Request().Method,
			normalizePath(c.Path()),
			strconv.Itoa(c.Response().Status),
		).Inc()
		return err
	}
}

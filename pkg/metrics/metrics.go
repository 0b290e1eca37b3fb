package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	OrdersConfirmed *prometheus.CounterVec
	WebhookRejects  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the shop metrics on their own registry.
func New(namespace string) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	confirmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_confirmed_total",
		Help:      "Orders moved from pending to paid, by confirmation source.",
	}, []string{"source"})
	rejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_rejections_total",
		Help:      "Webhook deliveries rejected before processing.",
	}, []string{"reason"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		requests, latency, confirmed, rejects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Requests:        requests,
		LatencyMS:       latency,
		OrdersConfirmed: confirmed,
		WebhookRejects:  rejects,
		registry:        reg,
	}
}

func (m *Metrics) OrderConfirmed(source string) {
	m.OrdersConfirmed.WithLabelValues(source).Inc()
}

func (m *Metrics) WebhookRejected(reason string) {
	m.WebhookRejects.WithLabelValues(reason).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus instrumentation for the trust layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth, idempotency and webhook delivery outcomes.
type Collector struct {
	authOutcomes      *prometheus.CounterVec
	idempotencyHits   prometheus.Counter
	idempotencyMisses prometheus.Counter
	webhookAttempts   prometheus.Counter
	webhookOutcomes   *prometheus.CounterVec
	webhookLatency    prometheus.Histogram
}

// NewCollector registers the gateway metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_auth_outcomes_total",
			Help: "Authentication outcomes by method and result.",
		}, []string{"method", "result"}),
		idempotencyHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_idempotency_replays_total",
			Help: "Requests answered from a recorded idempotent response.",
		}),
		idempotencyMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_idempotency_executions_total",
			Help: "Guarded requests that executed their handler.",
		}),
		webhookAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_webhook_attempts_total",
			Help: "Individual webhook delivery attempts.",
		}),
		webhookOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_webhook_outcomes_total",
			Help: "Terminal webhook delivery outcomes.",
		}, []string{"result"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_webhook_duration_seconds",
			Help:    "Wall time of complete webhook delivery sequences.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authOutcomes,
		c.idempotencyHits,
		c.idempotencyMisses,
		c.webhookAttempts,
		c.webhookOutcomes,
		c.webhookLatency,
	)
	return c
}

func (c *Collector) RecordAuthOutcome(method, result string) {
	c.authOutcomes.WithLabelValues(method, result).Inc()
}

func (c *Collector) RecordIdempotencyReplay() {
	c.idempotencyHits.Inc()
}

func (c *Collector) RecordIdempotencyExecution() {
	c.idempotencyMisses.Inc()
}

func (c *Collector) RecordWebhookAttempt() {
	c.webhookAttempts.Inc()
}

func (c *Collector) RecordWebhookOutcome(delivered bool, seconds float64) {
	result := "delivered"
	if !delivered {
		result = "exhausted"
	}
	c.webhookOutcomes.WithLabelValues(result).Inc()
	c.webhookLatency.Observe(seconds)
}

// Handler serves the metrics endpoint for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhooksReceivedTotal,
		webhookProcessingMs,
	)
}

var webhooksReceivedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Inbound webhook deliveries by event type and outcome.",
	},
	[]string{"type", "outcome"}, // ok | duplicate | invalid_signature | bad_payload | error
)

var webhookProcessingMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "webhook_processing_ms",
		Help:    "Webhook handler latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
	},
	[]string{"type", "success"},
)

func IncWebhook(eventType, outcome string) {
	webhooksReceivedTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func ObserveWebhookProcessing(eventType string, latencyMs int64, success bool) {
	webhookProcessingMs.WithLabelValues(norm(eventType), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

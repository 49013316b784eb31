package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		billingAPICallsTotal,
		billingAPILatencyMs,
		checkoutsCreatedTotal,
	)
}

var billingAPICallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_api_calls_total",
		Help: "Outbound billing provider API calls by endpoint and success.",
	},
	[]string{"endpoint", "success"},
)

var billingAPILatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "billing_api_latency_ms",
		Help:    "Billing provider API call latency in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"endpoint"},
)

var checkoutsCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "checkouts_created_total",
		Help: "Checkout sessions created with the billing provider.",
	},
)

func ObserveBillingCall(endpoint string, latencyMs int64, success bool) {
	billingAPICallsTotal.WithLabelValues(norm(endpoint), strconv.FormatBool(success)).Inc()
	billingAPILatencyMs.WithLabelValues(norm(endpoint)).Observe(float64(latencyMs))
}

func IncCheckoutCreated() { checkoutsCreatedTotal.Inc() }

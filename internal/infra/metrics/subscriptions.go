package metrics

import (
	"saas-starter/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionTransitionsTotal,
		subscriptionsSyncedTotal,
	)
}

var subscriptionTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subscription_transitions_total",
		Help: "Subscription status transitions applied, by resulting status and source.",
	},
	[]string{"status", "source"}, // source: webhook | sync | action
)

var subscriptionsSyncedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subscriptions_synced_total",
		Help: "Pull-based reconciliation runs by outcome.",
	},
	[]string{"outcome"}, // upserted | noop | error
)

func IncSubscriptionTransition(status model.SubscriptionStatus, source string) {
	subscriptionTransitionsTotal.WithLabelValues(string(status), norm(source)).Inc()
}

func IncSubscriptionSync(outcome string) {
	subscriptionsSyncedTotal.WithLabelValues(norm(outcome)).Inc()
}

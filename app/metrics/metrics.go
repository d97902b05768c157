package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "donations"

var (
	DonationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "PIX charges created, by coupon kind (none, streamer, global).",
	}, []string{"coupon_kind"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Donation status writes by new status.",
	}, []string{"status"})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Confirmation emails by outcome.",
	}, []string{"outcome"})

	PersistenceWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_warnings_total",
		Help:      "Charges created at the gateway whose donation row could not be stored.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Create requests rejected by the rate limiter.",
	})
)

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

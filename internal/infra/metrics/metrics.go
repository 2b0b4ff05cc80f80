package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_checkout_sessions_created_total",
		Help: "Created Stripe checkout sessions.",
	})

	// outcome: ok | duplicate | rejected | error
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_webhook_events_total",
		Help: "Incoming Stripe webhook deliveries by outcome.",
	}, []string{"outcome"})

	MonthsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_months_reconciled_total",
		Help: "Obligation months marked paid by the webhook handler.",
	})
)

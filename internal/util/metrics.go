package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of venue orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of venue order groups that failed to persist",
	}, []string{"reason"})

	CartItemsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_dropped_total",
		Help: "Cart items left out of order submission for lacking a venue",
	})

	OrderSubmitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_submit_latency_seconds",
		Help:    "Latency of cart-to-order submission",
		Buckets: prometheus.DefBuckets,
	})

	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_updates_total",
		Help: "Vendor order status update records by outcome",
	}, []string{"source", "outcome"})

	VenueAccessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_access_checks_total",
		Help: "Venue access checks by result",
	}, []string{"result"})

	CartPruneFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_prune_failures_total",
		Help: "Failed attempts to prune cart items after venue access was denied",
	})

	OTPIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otp_issued_total",
		Help: "Total number of login codes issued",
	})

	OTPVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_verify_total",
		Help: "Login code verifications by outcome",
	}, []string{"outcome"})

	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Rejected requests by route group",
	}, []string{"scope"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route template, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meals_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meals_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ReviewCountDrift counts review inserts/deletes whose paired counter update failed.
	ReviewCountDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meals_review_count_drift_total",
		Help: "Review count updates that failed after the review document changed",
	}, []string{"operation"})

	// PaymentTierGap counts payments recorded without the matching badge change.
	PaymentTierGap = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meals_payment_tier_gap_total",
		Help: "Payments recorded whose badge upgrade did not complete",
	})

	EngagementRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meals_engagement_rejected_total",
		Help: "Likes and meal requests rejected by the engagement rules",
	}, []string{"kind"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meals_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"resource"})
)

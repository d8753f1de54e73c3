package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riselocal",
		Name:      "codes_issued_total",
		Help:      "Coupon code issuance attempts by code type and result.",
	}, []string{"type", "result"})

	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riselocal",
		Name:      "redemptions_total",
		Help:      "Recorded redemptions by source.",
	}, []string{"source"})

	RedemptionsVoided = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "riselocal",
		Name:      "redemptions_voided_total",
		Help:      "Redemptions undone by their owner.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riselocal",
		Name:      "vendor_verifications_total",
		Help:      "Vendor-side code verifications by result.",
	}, []string{"result"})

	EligibilityCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riselocal",
		Name:      "eligibility_cache_total",
		Help:      "Eligibility cache lookups by outcome.",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "riselocal",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

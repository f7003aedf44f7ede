package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookgw_requests_total",
			Help: "Inbound capture requests by outcome",
		},
		[]string{"outcome"}, // captured|not_found|rate_limited|quota_exceeded|too_large|error
	)

	RateLimitChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookgw_ratelimit_checks_total",
			Help: "Rate limit checks by layer and result",
		},
		[]string{"layer", "result"}, // slug|ip|account , allowed|limited[_fallback]
	)

	ReplaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookgw_replays_total",
			Help: "Outbound replay attempts by result",
		},
		[]string{"result"}, // delivered|unsafe_url|failed|breaker_open
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RequestsTotal,
		RateLimitChecks,
		ReplaysTotal,
	)
}

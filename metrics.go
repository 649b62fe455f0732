package localgit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localgit_cache_lookups_total",
			Help: "Cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	retryCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localgit_sync_retries_total",
			Help: "Synchronizations that needed a second attempt",
		},
	)

	failureCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localgit_sync_failures_total",
			Help: "Synchronizations that failed after every attempt",
		},
	)

	expiredCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localgit_expired_branches_deleted_total",
			Help: "Expired cache entries deleted per mirror",
		},
		[]string{"mirror"},
	)

	pushFailureCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localgit_push_failures_total",
			Help: "Failed pushes or remote deletes per mirror",
		},
		[]string{"mirror"},
	)

	oldestAgeGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "localgit_cache_oldest_branch_age_seconds",
			Help: "Age of the oldest surviving timestamp branch per mirror",
		},
		[]string{"mirror"},
	)
)

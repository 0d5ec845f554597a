package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmdb_request_duration_seconds",
		Help:    "Duration of TMDB API requests by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmdb_request_errors_total",
		Help: "TMDB API requests that failed or were rejected by the breaker",
	}, []string{"endpoint"})

	FeatureCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feature_cache_hits_total",
		Help: "Feature record lookups served from the in-process cache",
	})

	FeatureCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feature_cache_misses_total",
		Help: "Feature record lookups that required a provider fetch",
	})

	RankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_ranking_duration_seconds",
		Help:    "Duration of a full rank pass (extraction, scoring, sorting)",
		Buckets: prometheus.DefBuckets,
	})

	RecommendationsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendations_generated_total",
		Help: "Recommendation items returned, by operation",
	}, []string{"operation"})
)

// ProviderRequestTimer starts a timer for one provider request.
func ProviderRequestTimer(endpoint string) *prometheus.Timer {
	return prometheus.NewTimer(ProviderRequestDuration.WithLabelValues(endpoint))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP serving metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyresearch_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polyresearch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// Upstream API metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyresearch_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"api", "endpoint", "status"}, // data/gamma, /trades, 200/error
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polyresearch_upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	// Leaderboard engine metrics
	LeaderboardBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyresearch_leaderboard_builds_total",
			Help: "Total number of gainer leaderboard computations",
		},
	)

	LeaderboardBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyresearch_leaderboard_build_duration_seconds",
			Help:    "Duration of gainer leaderboard computations",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyresearch_records_skipped_total",
			Help: "Raw records with fields that could not be parsed",
		},
		[]string{"field"}, // wallet, timestamp, price, size
	)

	// Market ranking metrics
	MarketRankings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyresearch_market_rankings_total",
			Help: "Total number of market ranking computations",
		},
		[]string{"kind"}, // watch, trending, search
	)

	// Profile enrichment metrics
	ProfileLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyresearch_profile_lookups_total",
			Help: "Total number of wallet profile lookups",
		},
		[]string{"status"}, // hit, miss, error
	)

	// NL agent metrics
	AgentQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyresearch_agent_queries_total",
			Help: "Total number of natural-language agent queries",
		},
		[]string{"status"}, // ok, parse_error, upstream_error, disabled
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one upstream API call
func RecordUpstreamRequest(api, endpoint, status string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(api, endpoint, status).Inc()
	UpstreamRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordLeaderboardBuild records one leaderboard computation
func RecordLeaderboardBuild(duration time.Duration) {
	LeaderboardBuilds.Inc()
	LeaderboardBuildDuration.Observe(duration.Seconds())
}

// RecordSkips adds per-field skip counts from one batch
func RecordSkips(wallet, timestamp, price, size int) {
	if wallet > 0 {
		RecordsSkipped.WithLabelValues("wallet").Add(float64(wallet))
	}
	if timestamp > 0 {
		RecordsSkipped.WithLabelValues("timestamp").Add(float64(timestamp))
	}
	if price > 0 {
		RecordsSkipped.WithLabelValues("price").Add(float64(price))
	}
	if size > 0 {
		RecordsSkipped.WithLabelValues("size").Add(float64(size))
	}
}

// RecordProfileLookup records the outcome of one handle lookup
func RecordProfileLookup(status string) {
	ProfileLookups.WithLabelValues(status).Inc()
}

// RecordAgentQuery records the outcome of one NL agent query
func RecordAgentQuery(status string) {
	AgentQueries.WithLabelValues(status).Inc()
}

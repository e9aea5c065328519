// Package metrics provides Prometheus metrics for the s4view browser.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Listing cache
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s4view_listing_cache_lookups_total",
			Help: "Listing cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "s4view_listing_cache_entries",
			Help: "Number of folder listings held in the session cache",
		},
	)

	// Storage API
	listFolderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s4view_list_folder_requests_total",
			Help: "Total list-folder requests sent to the storage API",
		},
		[]string{"status"},
	)

	listFolderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "s4view_list_folder_duration_seconds",
			Help:    "List-folder request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	temporaryLinksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s4view_temporary_link_requests_total",
			Help: "Total temporary-link requests sent to the storage API",
		},
		[]string{"status"},
	)

	// Prefetch and navigation
	prefetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s4view_prefetch_submissions_total",
			Help: "Prefetch submissions by outcome (queued, cached, pending, dropped, closed)",
		},
		[]string{"outcome"},
	)

	staleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "s4view_stale_responses_total",
			Help: "Listing responses discarded because the path changed while loading",
		},
	)
)

// RecordCacheLookup records a listing cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}

// SetCacheEntries sets the number of cached listings.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordListFolder records one list-folder request.
func RecordListFolder(err error, duration time.Duration) {
	listFolderTotal.WithLabelValues(status(err)).Inc()
	listFolderDuration.Observe(duration.Seconds())
}

// RecordTemporaryLink records one temporary-link request.
func RecordTemporaryLink(err error) {
	temporaryLinksTotal.WithLabelValues(status(err)).Inc()
}

// RecordPrefetch records what happened to a prefetch submission.
func RecordPrefetch(outcome string) {
	prefetchTotal.WithLabelValues(outcome).Inc()
}

// RecordStaleResponse records a discarded out-of-date listing response.
func RecordStaleResponse() {
	staleResponsesTotal.Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

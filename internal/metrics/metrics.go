// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcomes
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeEmpty     = "empty"
	OutcomeNotEnough = "not_enough"
)

// Degradable search sub-calls
const (
	SubcallCategories = "categories"
	SubcallFuzzy      = "fuzzy"
)

var (
	registerOnce sync.Once

	searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listings_engine",
		Name:      "searches_total",
		Help:      "Total number of searches by outcome",
	}, []string{"outcome"})
	degradedSubcalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listings_engine",
		Name:      "degraded_subcalls_total",
		Help:      "Search sub-calls that failed and degraded to empty results",
	}, []string{"subcall"})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "listings_engine",
		Name:      "search_duration_seconds",
		Help:      "Histogram of search durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})
	backendCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listings_engine",
		Name:      "backend_cache_lookups_total",
		Help:      "In-process backend cache lookups by result",
	}, []string{"result"})

	listingsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "listings_engine",
		Name:      "listings_total",
		Help:      "Number of listings in the loaded collection",
	})
	categoriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "listings_engine",
		Name:      "categories_total",
		Help:      "Number of categories in the loaded collection",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searches, degradedSubcalls, searchDuration, backendCache,
			listingsGauge, categoriesGauge)
	})
}

// Search helpers
func IncSearch(outcome string)       { searches.WithLabelValues(outcome).Inc() }
func IncDegraded(subcall string)     { degradedSubcalls.WithLabelValues(subcall).Inc() }
func ObserveSearch(d time.Duration) { searchDuration.Observe(d.Seconds()) }

// IncBackendCache records a cache hit or miss in the in-process backend.
func IncBackendCache(hit bool) {
	if hit {
		backendCache.WithLabelValues("hit").Inc()
		return
	}
	backendCache.WithLabelValues("miss").Inc()
}

// Gauges
func SetListings(n int)   { listingsGauge.Set(float64(n)) }
func SetCategories(n int) { categoriesGauge.Set(float64(n)) }

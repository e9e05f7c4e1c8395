// file: internal/metrics/metrics_test.go
// version: 2.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2d

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestIncSearch(t *testing.T) {
	before := testutil.ToFloat64(searches.WithLabelValues(OutcomeOK))
	IncSearch(OutcomeOK)
	IncSearch(OutcomeOK)
	if got := testutil.ToFloat64(searches.WithLabelValues(OutcomeOK)); got != before+2 {
		t.Errorf("searches_total{outcome=ok} = %v, want %v", got, before+2)
	}
}

func TestIncDegraded(t *testing.T) {
	before := testutil.ToFloat64(degradedSubcalls.WithLabelValues(SubcallFuzzy))
	IncDegraded(SubcallFuzzy)
	if got := testutil.ToFloat64(degradedSubcalls.WithLabelValues(SubcallFuzzy)); got != before+1 {
		t.Errorf("degraded_subcalls_total{subcall=fuzzy} = %v, want %v", got, before+1)
	}
}

func TestIncBackendCache(t *testing.T) {
	hits := testutil.ToFloat64(backendCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(backendCache.WithLabelValues("miss"))
	IncBackendCache(true)
	IncBackendCache(false)
	IncBackendCache(false)
	if got := testutil.ToFloat64(backendCache.WithLabelValues("hit")); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(backendCache.WithLabelValues("miss")); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

func TestObserveSearch(t *testing.T) {
	ObserveSearch(3 * time.Millisecond)
	if n := testutil.CollectAndCount(searchDuration); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

func TestGauges(t *testing.T) {
	SetListings(120)
	SetCategories(34)
	if got := testutil.ToFloat64(listingsGauge); got != 120 {
		t.Errorf("listings_total = %v, want 120", got)
	}
	if got := testutil.ToFloat64(categoriesGauge); got != 34 {
		t.Errorf("categories_total = %v, want 34", got)
	}
}

// Package metrics exposes Prometheus collectors for the catalog engine.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogCacheLookupsTotal *prometheus.CounterVec
	catalogFetchesTotal      *prometheus.CounterVec
	catalogRowsTotal         *prometheus.CounterVec
	catalogIncompleteGauge   prometheus.Gauge
	catalogSizeGauge         prometheus.Gauge
	catalogCycleSeconds      *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		catalogCacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_cache_lookups_total",
				Help: "Total product cache lookups, labeled by result (hit/miss).",
			},
			[]string{"result"},
		)

		catalogFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetches_total",
				Help: "Total outbound product API fetches, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		catalogRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_rows_total",
				Help: "Total catalog rows produced, labeled by origin (discovered/updated).",
			},
			[]string{"origin"},
		)

		catalogIncompleteGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_incomplete_categories",
				Help: "Number of categories whose crawl stopped at a cap with work left.",
			},
		)

		catalogSizeGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_size_rows",
				Help: "Number of rows in the persisted catalog after the last cycle.",
			},
		)

		catalogCycleSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_cycle_duration_seconds",
				Help:    "Duration of build/update cycles.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"mode"},
		)
	})
}

// ObserveCacheLookup records a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	Init()
	result := "miss"
	if hit {
		result = "hit"
	}
	catalogCacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveFetch records the outcome of an API fetch.
// kind is "product" or "related"; outcome is "ok" or "error".
func ObserveFetch(kind, outcome string) {
	Init()
	catalogFetchesTotal.WithLabelValues(kind, outcome).Inc()
}

// AddRows records rows produced by a cycle, labeled by origin.
func AddRows(origin string, n int) {
	Init()
	catalogRowsTotal.WithLabelValues(origin).Add(float64(n))
}

// SetIncompleteCategories reports the current incomplete-category count.
func SetIncompleteCategories(n int) {
	Init()
	catalogIncompleteGauge.Set(float64(n))
}

// SetCatalogSize reports the persisted catalog size.
func SetCatalogSize(n int) {
	Init()
	catalogSizeGauge.Set(float64(n))
}

// ObserveCycle records a completed cycle duration for the given mode.
func ObserveCycle(mode string, d time.Duration) {
	Init()
	catalogCycleSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

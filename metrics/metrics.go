// Package metrics exposes Prometheus collectors for the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transbasket_http_requests_total",
		Help: "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transbasket_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// TranslationsTotal counts served translations by source.
	TranslationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transbasket_translations_total",
		Help: "Translations served, by source (cache or provider).",
	}, []string{"source"})

	// TranslationFailuresTotal counts failed translation requests.
	TranslationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transbasket_translation_failures_total",
		Help: "Translation requests that returned an error to the client.",
	})

	// CacheHits counts confirmed-entry cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transbasket_cache_hits_total",
		Help: "Lookups answered from the cache without an external call.",
	})

	// CacheMisses counts lookups that needed the external provider.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transbasket_cache_misses_total",
		Help: "Lookups that required an external translation call.",
	})

	// CacheEntries holds the number of cached entries as of the last
	// checkpoint; it is set only when the server's SaveCache runs.
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transbasket_cache_entries",
		Help: "Entries held by the cache backend at the last checkpoint.",
	})
)

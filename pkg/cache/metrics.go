package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cached bodies served after a 304
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "canvas_cache_hits_total",
			Help: "Total number of cached Canvas responses served after revalidation",
		},
	)

	// CacheMisses tracks lookups that found nothing
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "canvas_cache_misses_total",
			Help: "Total number of Canvas cache misses",
		},
	)

	// LastEntrySize is the size of the last stored entry. Entries expire in
	// Redis on their own, so a running total would drift.
	LastEntrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "canvas_cache_last_entry_bytes",
			Help: "Size in bytes of the last entry written to the Canvas cache",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "canvas_304_responses_total",
			Help: "Total number of Canvas 304 Not Modified responses",
		},
	)

	// ConditionalRequests tracks requests sent with a validator
	ConditionalRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "canvas_conditional_requests_total",
			Help: "Total number of Canvas requests sent with If-None-Match or If-Modified-Since",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvas_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)

// Package metrics exposes the Prometheus registry the Canvas client reports to.
// Metrics are defined in their own packages (client, pagination, cache,
// ratelimit) via promauto and land in the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registerer used by the client packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler for Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - canvas_pages_fetched_total (Counter): Pages handed out by paginators
//   - canvas_pagination_runs_total{outcome} (Counter): Runs by outcome
//     (complete, truncated, abandoned, canceled, error)
//   - canvas_pagination_run_pages (Histogram): Pages per run
//
// Rate Limit Metrics (pkg/ratelimit):
//   - canvas_rate_limit_remaining (Gauge): Last X-Rate-Limit-Remaining value
//   - canvas_request_cost (Gauge): Last X-Request-Cost value
//   - canvas_rate_limit_blocks_total (Counter): Requests blocked at the critical threshold
//   - canvas_rate_limit_throttles_total (Counter): Requests delayed at the warning threshold
//
// Cache Metrics (pkg/cache):
//   - canvas_cache_hits_total (Counter): Cached bodies served after a 304
//   - canvas_cache_misses_total (Counter): Lookups with no cached entry
//   - canvas_cache_last_entry_bytes (Gauge): Bytes written by the last Set
//   - canvas_304_responses_total (Counter): 304 Not Modified responses
//   - canvas_conditional_requests_total (Counter): Requests sent with If-None-Match
//   - canvas_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - canvas_requests_total{method, status} (Counter): Requests by method and HTTP status
//   - canvas_request_duration_seconds{method} (Histogram): Request duration
//   - canvas_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - canvas_retries_total{error_class} (Counter): Retry attempts
//   - canvas_retry_exhausted_total{error_class} (Counter): Requests that used up their retries
//   - canvas_circuit_open_total (Counter): Requests rejected by the open circuit breaker
//
// Example Prometheus Queries:
//
//   # Runs that did not finish
//   sum(rate(canvas_pagination_runs_total{outcome!="complete"}[5m]))
//
//   # Remaining rate limit budget
//   canvas_rate_limit_remaining < 200
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(canvas_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(canvas_304_responses_total[5m]) / rate(canvas_requests_total[5m])

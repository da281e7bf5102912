// Package cache stores Canvas GET responses in Redis for ETag revalidation.
//
// Canvas marks most API responses private and must-revalidate, so a cached
// entry is never served on its own. The client sends the stored ETag (or
// Last-Modified) with the next identical request and reuses the stored body,
// headers and Link relations only when Canvas answers 304 Not Modified. A 304
// is cheaper against the rate limit bucket than a full response.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.KeyFromURL(pageURL, actingAs)
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// plain request
//	}
//	cache.AddConditionalHeaders(req, entry)
//
//	// after a 200
//	if cache.Cacheable(status, header) {
//		_ = manager.Set(ctx, key, cache.NewEntry(status, header, body))
//	}
//
// # Keys
//
// The raw query string is part of the key verbatim. Canvas array parameters
// (include[]=a&include[]=b) are order-sensitive, so two requests that differ
// only in pair order are cached separately. The acting-as identity is part of
// the key so masqueraded responses never leak across users.
//
// # Metrics
//
//   - canvas_cache_hits_total - Cached bodies served after a 304
//   - canvas_cache_misses_total - Lookups with no cached entry
//   - canvas_cache_last_entry_bytes - Bytes written by the last Set
//   - canvas_304_responses_total - 304 Not Modified responses
//   - canvas_conditional_requests_total - Requests sent with validators
//   - canvas_cache_errors_total{operation} - Cache operation errors
package cache

package cache

import (
	"net/http"
	"strings"
	"time"
)

// Cacheable reports whether a GET response may be stored: a 200 with a
// validator and no Cache-Control: no-store.
func Cacheable(status int, header http.Header) bool {
	if status != http.StatusOK {
		return false
	}
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-store") {
			return false
		}
	}
	return header.Get("ETag") != "" || header.Get("Last-Modified") != ""
}

// NewEntry builds an entry from a response.
func NewEntry(status int, header http.Header, body []byte) *Entry {
	entry := &Entry{
		Data:       body,
		ETag:       header.Get("ETag"),
		StatusCode: status,
		Headers:    header.Clone(),
		CachedAt:   time.Now(),
		Expires:    RetainUntil(header),
	}
	if lastMod := header.Get("Last-Modified"); lastMod != "" {
		if t, err := http.ParseTime(lastMod); err == nil {
			entry.LastModified = t
		}
	}
	return entry
}

// RetainUntil returns how long to keep an entry for header: the later of its
// Expires header and now + DefaultTTL.
func RetainUntil(header http.Header) time.Time {
	floor := time.Now().Add(DefaultTTL)
	expiresStr := header.Get("Expires")
	if expiresStr == "" {
		return floor
	}
	expires, err := http.ParseTime(expiresStr)
	if err != nil || expires.Before(floor) {
		return floor
	}
	return expires
}

// AddConditionalHeaders adds If-None-Match, or If-Modified-Since when there is
// no ETag, to req. It reports whether a validator was added.
func AddConditionalHeaders(req *http.Request, entry *Entry) bool {
	if req == nil || !entry.CanRevalidate() {
		return false
	}
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else {
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
	ConditionalRequests.Inc()
	return true
}

// Revalidated merges the headers of a 304 into entry and returns the header
// set to serve. Rate limit and date headers come from the 304; everything
// else, including Link, from the cached response.
func Revalidated(entry *Entry, notModified http.Header) http.Header {
	merged := entry.Headers.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	for k, v := range notModified {
		if k == "Content-Length" || k == "Content-Type" {
			continue
		}
		merged[k] = append([]string(nil), v...)
	}
	if etag := notModified.Get("ETag"); etag != "" {
		entry.ETag = etag
	}
	entry.Headers = merged
	NotModifiedResponses.Inc()
	CacheHits.Inc()
	return merged
}

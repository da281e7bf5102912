package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is how long an entry is retained when the response carries no
// later Expires header.
const DefaultTTL = 10 * time.Minute

// Entry is a cached Canvas response.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ETag is sent back as If-None-Match.
	ETag string `json:"etag"`

	// LastModified is sent back as If-Modified-Since when there is no ETag.
	LastModified time.Time `json:"last_modified"`

	// Expires bounds how long the entry is retained, not how long it may be
	// served without revalidation.
	Expires time.Time `json:"expires"`

	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	CachedAt   time.Time   `json:"cached_at"`
}

// IsExpired returns true once the entry's retention window has passed.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the remaining retention time, or 0 if expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// CanRevalidate reports whether the entry carries a validator.
func (e *Entry) CanRevalidate() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}

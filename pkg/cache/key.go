package cache

import (
	"net/url"
	"strings"
)

// Key identifies a cached Canvas response.
type Key struct {
	// Path is the request path, e.g. /api/v1/courses.
	Path string

	// RawQuery is the encoded query string, used verbatim.
	RawQuery string

	// ActingAs is the masquerade identity, empty for the token's own user.
	ActingAs string
}

// KeyFromURL builds a Key from a request URL. An unparsable URL is kept whole
// in Path.
func KeyFromURL(rawURL, actingAs string) Key {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Key{Path: rawURL, ActingAs: actingAs}
	}
	return Key{Path: u.Path, RawQuery: u.RawQuery, ActingAs: actingAs}
}

// String returns the Redis key.
// Format: canvas:<path>[?<query>][:as=<id>]
//
// Example:
//
//	canvas:api/v1/courses?include[]=term&per_page=50:as=sis_user_id:42
func (k Key) String() string {
	var b strings.Builder
	b.WriteString("canvas:")
	b.WriteString(strings.Trim(k.Path, "/"))
	if k.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(k.RawQuery)
	}
	if k.ActingAs != "" {
		b.WriteString(":as=")
		b.WriteString(k.ActingAs)
	}
	return b.String()
}

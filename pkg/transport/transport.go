// Package transport defines the boundary between the pagination core and
// the HTTP client that talks to Canvas.
package transport

import (
	"context"
	"net/http"

	"github.com/Sternrassler/canvas-client/pkg/query"
)

// Transport issues one HTTP request and returns the fully read response.
//
// Implementations return a non-nil error only when no response was received
// (connectivity, timeout, cancellation, or a client-side gate refusing the
// request). Non-2xx responses come back as a *Response so the caller can decide.
type Transport interface {
	Issue(ctx context.Context, method, rawURL string, body *query.Body) (*Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, method, rawURL string, body *query.Body) (*Response, error)

// Issue calls f.
func (f Func) Issue(ctx context.Context, method, rawURL string, body *query.Body) (*Response, error) {
	return f(ctx, method, rawURL, body)
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// URL is the final request URL, after acting-as rewriting.
	URL string
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Links returns every Link header value.
func (r *Response) Links() []string {
	if r == nil || r.Header == nil {
		return nil
	}
	return r.Header.Values("Link")
}

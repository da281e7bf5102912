// Package testutil provides a mock Canvas server for tests.
package testutil

import (
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Request is one request received by MockCanvas.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     string
}

// Query parses RawQuery.
func (r Request) Query() url.Values {
	v, _ := url.ParseQuery(r.RawQuery)
	return v
}

// MockCanvas is a configurable mock Canvas server. Collections registered
// with SetPages are served one page per request with Link headers the way
// Canvas does.
type MockCanvas struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	pages    map[string][]string
	requests []Request

	// Remaining is sent as X-Rate-Limit-Remaining on every response.
	Remaining float64

	// EchoActingAs keeps as_user_id in generated Link URLs. When false it is
	// stripped, as Canvas does for some endpoints.
	EchoActingAs bool

	// RelativeLinks makes generated Link URLs path-relative.
	RelativeLinks bool
}

// NewMockCanvas starts a mock Canvas server.
func NewMockCanvas() *MockCanvas {
	mock := &MockCanvas{
		handlers:     make(map[string]http.HandlerFunc),
		pages:        make(map[string][]string),
		Remaining:    700,
		EchoActingAs: true,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockCanvas) URL() string {
	return m.server.URL
}

// Client returns an http.Client for the server.
func (m *MockCanvas) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockCanvas) Close() {
	m.server.Close()
}

// Reset clears the request log.
func (m *MockCanvas) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for a path.
func (m *MockCanvas) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCanvas) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			io.WriteString(w, resp.Body)
		}
	})
}

// SetPages registers a paginated collection at path. Page n (1-based, from
// the page query parameter) gets bodies[n-1] and a next link if n is not last.
func (m *MockCanvas) SetPages(path string, bodies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[path] = bodies
}

// Requests returns a copy of the request log.
func (m *MockCanvas) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests received.
func (m *MockCanvas) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// ConditionalCount returns how many requests carried a validator.
func (m *MockCanvas) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			n++
		}
	}
	return n
}

func (m *MockCanvas) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     string(body),
	})
	handler, hasHandler := m.handlers[r.URL.Path]
	pages, hasPages := m.pages[r.URL.Path]
	remaining := m.Remaining
	m.mu.Unlock()

	w.Header().Set("X-Rate-Limit-Remaining", strconv.FormatFloat(remaining, 'f', -1, 64))
	w.Header().Set("X-Request-Cost", "0.01")

	switch {
	case hasHandler:
		handler(w, r)
	case hasPages:
		m.servePage(w, r, pages)
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errors":[{"message":"The specified resource does not exist."}]}`)
	}
}

func (m *MockCanvas) servePage(w http.ResponseWriter, r *http.Request, pages []string) {
	n := 1
	if p := r.URL.Query().Get("page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 || v > len(pages) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		n = v
	}

	body := pages[n-1]
	etag := pageETag(r.URL.Path, n, body)

	links := []string{
		fmt.Sprintf(`<%s>; rel="current"`, m.pageURL(r, n)),
		fmt.Sprintf(`<%s>; rel="first"`, m.pageURL(r, 1)),
		fmt.Sprintf(`<%s>; rel="last"`, m.pageURL(r, len(pages))),
	}
	if n < len(pages) {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, m.pageURL(r, n+1)))
	}
	if n > 1 {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, m.pageURL(r, n-1)))
	}
	w.Header().Set("Link", strings.Join(links, ","))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

// pageURL rewrites the page pair of the request query, leaving the other
// pairs in their original order and encoding.
func (m *MockCanvas) pageURL(r *http.Request, page int) string {
	var kept []string
	replaced := false
	for _, seg := range strings.Split(r.URL.RawQuery, "&") {
		if seg == "" {
			continue
		}
		key, _, _ := strings.Cut(seg, "=")
		switch key {
		case "page":
			if !replaced {
				kept = append(kept, "page="+strconv.Itoa(page))
				replaced = true
			}
			continue
		case "as_user_id":
			if !m.EchoActingAs {
				continue
			}
		}
		kept = append(kept, seg)
	}
	if !replaced {
		kept = append(kept, "page="+strconv.Itoa(page))
	}

	u := r.URL.Path + "?" + strings.Join(kept, "&")
	if m.RelativeLinks {
		return u
	}
	return m.server.URL + u
}

func pageETag(path string, page int, body string) string {
	h := fnv.New32a()
	io.WriteString(h, body)
	return fmt.Sprintf(`"%s-%d-%x"`, strings.Trim(strings.ReplaceAll(path, "/", "-"), "-"), page, h.Sum32())
}

// NewHealthyResponse creates a 200 response with Canvas headers.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"ETag":         `"test-etag-123"`,
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates Canvas's throttling response: 403 with a
// "Rate Limit Exceeded" body and an empty bucket.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       "403 Forbidden (Rate Limit Exceeded)\n",
		Headers: map[string]string{
			"X-Rate-Limit-Remaining": "0",
			"Content-Type":           "text/plain",
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors":[{"message":"An error occurred."}]}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"errors":[{"message":"The specified resource does not exist."}]}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

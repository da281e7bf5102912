package transport

import (
	"bytes"
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents throttled requests (429, or Canvas's
	// 403 "Rate Limit Exceeded").
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Retryable reports whether a request failing with this class may succeed
// if sent again.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// Classify returns the error class for a status code and body, or "" for
// success statuses.
func Classify(statusCode int, body []byte) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode == http.StatusForbidden && bytes.Contains(body, []byte("Rate Limit Exceeded")):
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Error is a failed request: either no response was received (StatusCode 0,
// Err set) or the server answered with a non-success status.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("canvas %s error (%s %s, status %d): %s: %v",
			e.Class, e.Method, e.URL, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("canvas %s error (%s %s, status %d): %s",
		e.Class, e.Method, e.URL, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the whole operation may help.
func (e *Error) Temporary() bool {
	return e.Class.Retryable()
}

// StatusError builds an *Error for a non-success response.
func StatusError(method string, resp *Response) *Error {
	msg := http.StatusText(resp.StatusCode)
	if len(resp.Body) > 0 {
		msg = truncate(string(resp.Body), 256)
	}
	return &Error{
		Method:     method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Class:      Classify(resp.StatusCode, resp.Body),
		Message:    msg,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

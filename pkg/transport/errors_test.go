package transport

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		expected   ErrorClass
	}{
		{"success 200", 200, "", ""},
		{"not modified", 304, "", ""},
		{"client error 404", 404, `{"errors":[{"message":"not found"}]}`, ErrorClassClient},
		{"plain forbidden", 403, `{"status":"unauthorized"}`, ErrorClassClient},
		{"canvas throttling", 403, "403 Forbidden (Rate Limit Exceeded)\n", ErrorClassRateLimit},
		{"too many requests", 429, "", ErrorClassRateLimit},
		{"server error 500", 500, "", ErrorClassServer},
		{"server error 503", 503, "", ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.statusCode, []byte(tt.body)); got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorClass_Retryable(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := tt.class.Retryable(); got != tt.expected {
				t.Errorf("Retryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{
		Method:     http.MethodGet,
		URL:        "https://canvas.test/api/v1/courses",
		StatusCode: 500,
		Class:      ErrorClassServer,
		Message:    "Internal Server Error",
	}
	want := "canvas server error (GET https://canvas.test/api/v1/courses, status 500): Internal Server Error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := &Error{
		Method:  http.MethodGet,
		URL:     "https://canvas.test",
		Class:   ErrorClassNetwork,
		Message: "request failed",
		Err:     io.ErrUnexpectedEOF,
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should see the wrapped error")
	}
	if !strings.HasSuffix(wrapped.Error(), io.ErrUnexpectedEOF.Error()) {
		t.Errorf("Error() = %q, should end with wrapped error", wrapped.Error())
	}
	if !wrapped.Temporary() {
		t.Error("network errors should be temporary")
	}
}

func TestStatusError(t *testing.T) {
	resp := &Response{
		StatusCode: 404,
		URL:        "https://canvas.test/api/v1/courses/9",
		Body:       []byte(strings.Repeat("x", 300)),
	}
	err := StatusError(http.MethodGet, resp)

	if err.Class != ErrorClassClient {
		t.Errorf("Class = %q, want client", err.Class)
	}
	if err.URL != resp.URL {
		t.Errorf("URL = %q, want %q", err.URL, resp.URL)
	}
	if len(err.Message) != 259 {
		t.Errorf("Message length = %d, want truncated to 259", len(err.Message))
	}

	empty := StatusError(http.MethodDelete, &Response{StatusCode: 502})
	if empty.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want status text", empty.Message)
	}
}

func TestResponse_OK(t *testing.T) {
	var nilResp *Response
	if nilResp.OK() {
		t.Error("nil response must not be OK")
	}
	for code, want := range map[int]bool{200: true, 204: true, 299: true, 304: false, 404: false} {
		if got := (&Response{StatusCode: code}).OK(); got != want {
			t.Errorf("OK() for %d = %v, want %v", code, got, want)
		}
	}

	h := http.Header{}
	h.Add("Link", `<a>; rel="next"`)
	h.Add("Link", `<b>; rel="first"`)
	if links := (&Response{Header: h}).Links(); len(links) != 2 {
		t.Errorf("Links() = %v, want 2 values", links)
	}
}

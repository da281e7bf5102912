package client

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/canvas-client/pkg/transport"
)

// Common errors returned by the client.
var (
	// ErrRateLimited is returned when the rate limit tracker blocks a request
	// because the Canvas bucket is nearly empty.
	ErrRateLimited = errors.New("request blocked: canvas rate limit critical")

	// ErrCircuitOpen is returned while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRetryExhausted wraps the last network error once all retries are used.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// retryableStatus carries a response whose status class is worth retrying.
// It never leaves the package: once retries run out the response itself is
// returned.
type retryableStatus struct {
	resp  *transport.Response
	class transport.ErrorClass
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("canvas %s error (status %d)", e.class, e.resp.StatusCode)
}

// errorClass returns the class of an attempt error for metrics and logs.
func errorClass(err error) transport.ErrorClass {
	var rs *retryableStatus
	if errors.As(err, &rs) {
		return rs.class
	}
	var te *transport.Error
	if errors.As(err, &te) {
		return te.Class
	}
	return transport.ErrorClassNetwork
}

// isNetworkError reports whether err is a request that got no response.
func isNetworkError(err error) bool {
	var te *transport.Error
	return errors.As(err, &te) && te.Class == transport.ErrorClassNetwork
}

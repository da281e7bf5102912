package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxRetryAfter caps how long a Retry-After header can stall a request.
const maxRetryAfter = 2 * time.Minute

// hintedBackOff waits at least as long as the server asked for.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	d := h.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if h.hint > d {
		d = h.hint
	}
	h.hint = 0
	return d
}

// newBackOff returns the retry schedule for one request: exponential from
// InitialBackoff to MaxBackoff with ±20% jitter, at most MaxRetries retries,
// stopped when ctx ends.
func (c *Client) newBackOff(ctx context.Context) (backoff.BackOff, *hintedBackOff) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.config.InitialBackoff
	exp.MaxInterval = c.config.MaxBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.2
	exp.MaxElapsedTime = 0
	exp.Reset()

	hinted := &hintedBackOff{BackOff: backoff.WithMaxRetries(exp, uint64(c.config.MaxRetries))}
	return backoff.WithContext(hinted, ctx), hinted
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}

	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = time.Until(t)
	}

	if d < 0 {
		return 0
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

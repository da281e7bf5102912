// Package ratelimit tracks Canvas's leaky-bucket rate limit and gates requests.
// Canvas reports the bucket level in X-Rate-Limit-Remaining and the cost of the
// request just served in X-Request-Cost; both are floating point.
package ratelimit

import (
	"time"
)

// Canvas rate limit headers.
const (
	HeaderRemaining   = "X-Rate-Limit-Remaining"
	HeaderRequestCost = "X-Request-Cost"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining  = "canvas:rate_limit:remaining"
	RedisKeyLastCost   = "canvas:rate_limit:last_cost"
	RedisKeyLastUpdate = "canvas:rate_limit:last_update"
)

// Thresholds on the remaining bucket (Canvas starts a bucket at 700).
const (
	// ThresholdCritical blocks requests when the bucket falls below this value.
	ThresholdCritical = 50.0

	// ThresholdWarning throttles requests when the bucket falls below this value.
	ThresholdWarning = 200.0

	// ThresholdHealthy indicates normal operation.
	ThresholdHealthy = 400.0

	// BucketSize is the level a fully drained bucket refills to.
	BucketSize = 700.0
)

// StaleAfter is how old a state may get before it is ignored. The bucket
// refills continuously, so an old low reading says nothing about now.
const StaleAfter = time.Minute

// State is the last observed Canvas rate limit state.
type State struct {
	// Remaining is the bucket level from X-Rate-Limit-Remaining.
	Remaining float64 `json:"remaining"`

	// LastCost is the cost of the last request from X-Request-Cost.
	LastCost float64 `json:"last_cost"`

	// LastUpdate is when the headers were observed.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState returns the full-bucket state assumed before any response.
func DefaultState() *State {
	s := &State{Remaining: BucketSize, LastUpdate: time.Now()}
	s.UpdateHealth()
	return s
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical
}

// NeedsThrottling returns true if requests should be delayed.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock()
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}

package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_rate_limit_remaining",
		Help: "Last observed X-Rate-Limit-Remaining value",
	})

	requestCost = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_request_cost",
		Help: "Last observed X-Request-Cost value",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_rate_limit_blocks_total",
		Help: "Total number of requests blocked at the critical threshold",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_rate_limit_throttles_total",
		Help: "Total number of requests delayed at the warning threshold",
	})
)

// DefaultThrottleDelay is the pause applied in the warning band.
const DefaultThrottleDelay = time.Second

// Tracker monitors the Canvas rate limit bucket and gates requests.
type Tracker struct {
	store         Store
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a tracker over store. A nil store means a MemoryStore.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:         store,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay changes the warning-band delay. Zero disables the delay.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the current state. With no stored state, or a stale one,
// it returns DefaultState.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No rate limit state stored, assuming full bucket")
		return DefaultState(), nil
	}
	if state.IsStale(StaleAfter) {
		t.logger.Debug().
			Time("last_update", state.LastUpdate).
			Msg("Rate limit state is stale, assuming full bucket")
		return DefaultState(), nil
	}
	return state, nil
}

// UpdateFromHeaders records the rate limit headers of a Canvas response.
// Responses without X-Rate-Limit-Remaining leave the state unchanged.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := strings.TrimSpace(headers.Get(HeaderRemaining))
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.ParseFloat(remainStr, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	var cost float64
	if costStr := strings.TrimSpace(headers.Get(HeaderRequestCost)); costStr != "" {
		cost, err = strconv.ParseFloat(costStr, 64)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRequestCost, err)
		}
	}

	state := &State{
		Remaining:  remain,
		LastCost:   cost,
		LastUpdate: time.Now(),
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	rateLimitRemaining.Set(remain)
	requestCost.Set(cost)

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Float64("remaining", remain).
			Float64("cost", cost).
			Msg("Canvas rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Float64("remaining", remain).
			Float64("cost", cost).
			Msg("Canvas rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Float64("remaining", remain).
			Float64("cost", cost).
			Bool("is_healthy", state.IsHealthy).
			Msg("Canvas rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. In the
// critical band it returns false. In the warning band it waits the throttle
// delay first, returning ctx's error if ctx ends during the wait.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Float64("remaining", state.Remaining).
			Msg("Canvas rate limit critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() && t.throttleDelay > 0 {
		t.logger.Warn().
			Float64("remaining", state.Remaining).
			Dur("delay", t.throttleDelay).
			Msg("Canvas rate limit warning - throttling request")
		rateLimitThrottlesTotal.Inc()

		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}

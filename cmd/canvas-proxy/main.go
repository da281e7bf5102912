// Command canvas-proxy serves Canvas collections as single JSON arrays. A
// request for /api/v1/... follows every page of the upstream endpoint and
// streams the elements out as they arrive.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/logging"
	"github.com/Sternrassler/canvas-client/pkg/metrics"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
	"github.com/Sternrassler/canvas-client/pkg/transport"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	// actingAsHeader selects the identity a proxied request is made as.
	actingAsHeader = "X-Canvas-As-User"

	// errorTrailer reports a failure after streaming began.
	errorTrailer = "X-Canvas-Error"

	requestTimeout = 2 * time.Minute
)

func main() {
	logger := logging.Setup(logging.ConfigFromEnv("canvas-proxy", os.Getenv))

	canvasURL := getEnv("CANVAS_URL", "")
	token := getEnv("CANVAS_TOKEN", "")
	redisURL := getEnv("REDIS_URL", "")
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "canvas-proxy/0.1.0")

	if canvasURL == "" || token == "" {
		logger.Fatal().Msg("CANVAS_URL and CANVAS_TOKEN are required")
	}

	ctx := context.Background()
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	httpClient.Timeout = 30 * time.Second

	cfg := client.DefaultConfig(httpClient, canvasURL, userAgent)

	var redisClient *redis.Client
	if redisURL != "" {
		var err error
		redisClient, err = newRedisClient(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis", redisURL).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("redis", redisURL).Msg("Connected to Redis")
		cfg.Redis = redisClient
		cfg.EnableCache = true
	}

	canvasClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Canvas client")
	}
	defer canvasClient.Close()

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("canvas_url", canvasURL).
		Str("user_agent", userAgent).
		Bool("cache", cfg.EnableCache).
		Msg("Starting Canvas proxy server")

	if err := http.ListenAndServe(addr, newMux(canvasClient, redisClient, logger)); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// newRedisClient accepts a redis:// URL or a bare host:port.
func newRedisClient(raw string) (*redis.Client, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}

func newMux(c *client.Client, redisClient *redis.Client, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(redisClient))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/", proxyHandler(c, logger))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// proxyHandler streams every element of the upstream collection as one JSON
// array. ?envelope=<key> selects a wrapped collection; the remaining query
// is forwarded verbatim.
func proxyHandler(c *client.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rawQuery, envKey := splitEnvelope(r.URL.RawQuery)
		env := pagination.BareArray
		if envKey != "" {
			env = pagination.SingleKey(envKey)
		}

		endpoint := r.URL.Path
		if rawQuery != "" {
			endpoint += "?" + rawQuery
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		asUser := r.Header.Get(actingAsHeader)
		if asUser != "" {
			ctx = query.WithActingAs(ctx, asUser)
		}

		reqLogger := logging.ForRequest(logger, http.MethodGet, endpoint, asUser).
			With().Str("envelope", env.String()).Logger()

		started := false
		count := 0
		for item, err := range client.Stream[json.RawMessage](ctx, c, endpoint, nil, env) {
			if err != nil {
				if !started {
					reqLogger.Warn().Err(err).Msg("Canvas request failed")
					http.Error(w, err.Error(), statusFor(err))
					return
				}
				reqLogger.Error().Err(err).Int("elements", count).Msg("Canvas stream failed after output began")
				w.Header().Set(errorTrailer, err.Error())
				return
			}

			if !started {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Trailer", errorTrailer)
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("["))
				started = true
			} else {
				w.Write([]byte(","))
			}
			w.Write(item)
			count++
		}

		if !started {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("[]"))
			return
		}
		w.Write([]byte("]"))
		reqLogger.Debug().Int("elements", count).Msg("Canvas collection proxied")
	}
}

// splitEnvelope removes the envelope pair from rawQuery, keeping every other
// segment in its original order and encoding.
func splitEnvelope(rawQuery string) (rest, envelope string) {
	var kept []string
	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		if key == "envelope" {
			if v, err := url.QueryUnescape(value); err == nil {
				envelope = v
			}
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, "&"), envelope
}

func statusFor(err error) int {
	var te *transport.Error
	switch {
	case errors.As(err, &te) && te.StatusCode > 0:
		return te.StatusCode
	case errors.Is(err, client.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, client.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		var de *pagination.DecodeError
		if errors.As(err, &de) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

//go:build integration

package client

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/canvas-client/internal/testutil"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_FullPaginationFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockCanvas()
	defer mock.Close()
	mock.EchoActingAs = false
	mock.SetPages("/api/v1/courses", `[{"id":1,"name":"a"}]`, `[{"id":2,"name":"b"},{"id":3,"name":"c"}]`, `[{"id":4,"name":"d"}]`)

	c := newTestClient(t, mock, func(cfg *Config) {
		cfg.Redis = redisClient
		cfg.EnableCache = true
	})
	ctx := query.WithActingAs(context.Background(), "42")

	// Run 1: every page from the server
	t.Log("Run 1: cold cache")
	got, err := List[course](ctx, c, "/api/v1/courses", nil, pagination.BareArray)
	if err != nil {
		t.Fatalf("Run 1 failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Run 1 len = %d, want 4", len(got))
	}
	if mock.ConditionalCount() != 0 {
		t.Errorf("Run 1 conditional requests = %d, want 0", mock.ConditionalCount())
	}

	// Run 2: every page revalidated and served from cache
	t.Log("Run 2: warm cache")
	mock.Reset()
	got, err = List[course](ctx, c, "/api/v1/courses", nil, pagination.BareArray)
	if err != nil {
		t.Fatalf("Run 2 failed: %v", err)
	}
	if len(got) != 4 || got[3].Name != "d" {
		t.Errorf("Run 2 got %+v", got)
	}
	if mock.RequestCount() != 3 || mock.ConditionalCount() != 3 {
		t.Errorf("Run 2 requests = %d (conditional %d), want 3 (3)", mock.RequestCount(), mock.ConditionalCount())
	}
	for i, r := range mock.Requests() {
		if r.Query().Get("as_user_id") != "42" {
			t.Errorf("Run 2 request %d lost the acting-as identity: %q", i+1, r.RawQuery)
		}
	}

	// Rate limit state is shared through Redis
	state, err := c.RateLimitState(context.Background())
	if err != nil {
		t.Fatalf("RateLimitState() error = %v", err)
	}
	if state.Remaining != 700 || !state.IsHealthy {
		t.Errorf("state = %+v, want healthy 700", state)
	}
}

func TestIntegration_SharedRateLimitState(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockCanvas()
	defer mock.Close()
	mock.Remaining = 20
	mock.SetResponse("/api/v1/courses", testutil.NewHealthyResponse(`[]`))

	withRedis := func(cfg *Config) { cfg.Redis = redisClient }
	first := newTestClient(t, mock, withRedis)
	second := newTestClient(t, mock, withRedis)
	ctx := context.Background()

	if _, err := first.Get(ctx, "/api/v1/courses", nil); err != nil {
		t.Fatalf("first client Get() error = %v", err)
	}
	if _, err := second.Get(ctx, "/api/v1/courses", nil); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second client Get() error = %v, want ErrRateLimited", err)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.RequestCount())
	}
}

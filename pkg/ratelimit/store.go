package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the rate limit state. The Redis store shares one bucket view
// across processes using the same token; the memory store is per process.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// RedisStore keeps state in Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore returns a Store backed by redisClient.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

// Load returns the stored state, or nil if nothing has been stored yet.
func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	vals, err := r.redis.MGet(ctx, RedisKeyRemaining, RedisKeyLastCost, RedisKeyLastUpdate).Result()
	if err != nil {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}
	if vals[0] == nil || vals[2] == nil {
		return nil, nil
	}

	var s State
	if s.Remaining, err = parseFloat(vals[0]); err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	if vals[1] != nil {
		if s.LastCost, err = parseFloat(vals[1]); err != nil {
			return nil, fmt.Errorf("parse last cost: %w", err)
		}
	}
	str, _ := vals[2].(string)
	if s.LastUpdate, err = time.Parse(time.RFC3339Nano, str); err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}
	s.UpdateHealth()
	return &s, nil
}

// Save stores s atomically. Keys expire once the state would be stale anyway.
func (r *RedisStore) Save(ctx context.Context, s *State) error {
	ttl := 2 * StaleAfter
	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, s.Remaining, ttl)
	pipe.Set(ctx, RedisKeyLastCost, s.LastCost, ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, s.LastUpdate.UTC().Format(time.RFC3339Nano), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored state, or nil.
func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(ctx context.Context, s *State) error {
	if s == nil {
		return errors.New("nil state")
	}
	c := *s
	m.mu.Lock()
	m.state = &c
	m.mu.Unlock()
	return nil
}

func parseFloat(v any) (float64, error) {
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseFloat(str, 64)
}

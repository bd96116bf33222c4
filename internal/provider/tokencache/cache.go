// Package tokencache stores the provider OAuth access token with a TTL. It is
// a performance cache only, never the source of truth: an empty or lost cache
// just triggers another token exchange.
package tokencache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"veriflow/pkg/platform/sentinel"
)

const redisKey = "provider:access_token"

// Redis shares the token across service instances with Redis-managed expiry.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed token cache.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Get(ctx context.Context) (string, error) {
	token, err := c.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (c *Redis) Set(ctx context.Context, token string, ttl time.Duration) error {
	return c.client.Set(ctx, redisKey, token, ttl).Err()
}

// InMemory is the single-instance fallback when Redis is not configured.
type InMemory struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewInMemory constructs an empty in-memory token cache.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (c *InMemory) Get(_ context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" || time.Now().After(c.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return c.token, nil
}

func (c *InMemory) Set(_ context.Context, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = time.Now().Add(ttl)
	return nil
}

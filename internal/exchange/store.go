// Package exchange implements the single-use token handoff between the QR
// code shown on one device and the SDK session started on another. Tokens
// live in an external TTL store so redemption works no matter which service
// instance receives it; a process-local map would silently break behind a
// load balancer.
package exchange

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"veriflow/pkg/platform/sentinel"
)

// DefaultTTL bounds how long an issued handoff token stays redeemable.
const DefaultTTL = 5 * time.Minute

// Store issues and redeems single-use session tokens.
type Store interface {
	// Issue binds a fresh token to a session ID for ttl.
	Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, error)

	// Redeem consumes a token and returns its session ID. A token redeems
	// exactly once; expired or already-used tokens return
	// sentinel.ErrNotFound.
	Redeem(ctx context.Context, token string) (string, error)
}

const redisPrefix = "exchange:token:"

// RedisStore is the production implementation.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed exchange store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, redisPrefix+token, sessionID, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Redeem(ctx context.Context, token string) (string, error) {
	// GETDEL makes consume-once atomic across instances.
	sessionID, err := s.client.GetDel(ctx, redisPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// InMemoryStore is the single-instance fallback for development and tests.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	sessionID string
	expiresAt time.Time
}

// NewInMemoryStore constructs an empty in-memory exchange store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]memoryToken)}
}

func (s *InMemoryStore) Issue(_ context.Context, sessionID string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	s.tokens[token] = memoryToken{sessionID: sessionID, expiresAt: time.Now().Add(ttl)}
	return token, nil
}

func (s *InMemoryStore) Redeem(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	delete(s.tokens, token)
	if time.Now().After(t.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return t.sessionID, nil
}

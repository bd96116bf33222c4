//go:build integration

package exchange_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veriflow/internal/exchange"
	"veriflow/pkg/platform/sentinel"
	"veriflow/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *exchange.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = exchange.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestIssueAndRedeem() {
	ctx := context.Background()

	token, err := s.store.Issue(ctx, "sess-1", exchange.DefaultTTL)
	s.Require().NoError(err)

	sessionID, err := s.store.Redeem(ctx, token)
	s.Require().NoError(err)
	s.Equal("sess-1", sessionID)

	_, err = s.store.Redeem(ctx, token)
	s.ErrorIs(err, sentinel.ErrNotFound, "a token redeems exactly once")
}

func (s *RedisStoreSuite) TestExpiry() {
	ctx := context.Background()

	token, err := s.store.Issue(ctx, "sess-2", time.Second)
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = s.store.Redeem(ctx, token)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentRedeem verifies GETDEL makes consume-once atomic: many
// concurrent redeemers, exactly one winner.
func (s *RedisStoreSuite) TestConcurrentRedeem() {
	ctx := context.Background()
	const goroutines = 25

	token, err := s.store.Issue(ctx, "sess-3", exchange.DefaultTTL)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Redeem(ctx, token); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

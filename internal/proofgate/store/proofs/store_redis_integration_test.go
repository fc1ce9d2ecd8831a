//go:build integration

package proofs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"zkdao/internal/proofgate/store/proofs"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
	"zkdao/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *proofs.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = proofs.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestMarkUsedIsAtomic() {
	ctx := context.Background()
	digest := domain.Hash32{0x01, 0x02}

	used, err := s.store.IsUsed(ctx, digest)
	s.Require().NoError(err)
	s.False(used)

	s.Require().NoError(s.store.MarkUsed(ctx, digest))

	used, err = s.store.IsUsed(ctx, digest)
	s.Require().NoError(err)
	s.True(used)

	// The second consumption of the same digest is the replay case.
	err = s.store.MarkUsed(ctx, digest)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	other := domain.Hash32{0x03}
	s.Require().NoError(s.store.MarkUsed(ctx, other))
}

package proofs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

var markUsedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "zkdao_proof_mark_used_duration_ms",
	Help:    "Latency of proof consumption writes in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Redis key prefix for consumed proof digests.
const usedProofKeyPrefix = "zkdao:proof:used:"

// RedisStore is the Redis-backed replay registry. This is the
// production-recommended implementation for distributed deployments where
// multiple instances share replay state. Keys never expire: a consumed
// proof stays consumed.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IsUsed(ctx context.Context, digest domain.Hash32) (bool, error) {
	key := usedProofKeyPrefix + digest.String()
	_, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get used proof: %w", err)
	}
	return true, nil
}

// MarkUsed records the digest with SETNX so the existence check and the
// write are one atomic step across instances.
func (s *RedisStore) MarkUsed(ctx context.Context, digest domain.Hash32) error {
	start := time.Now()
	defer func() {
		markUsedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := usedProofKeyPrefix + digest.String()
	set, err := s.client.SetNX(ctx, key, "1", 0).Result()
	if err != nil {
		return fmt.Errorf("set used proof: %w", err)
	}
	if !set {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

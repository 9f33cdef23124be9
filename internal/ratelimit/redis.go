package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares attempt counts between API instances. Failures live in a
// sorted set scored by time; lockouts are plain keys with a TTL.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "login"
	}
	return &RedisStore{redis: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) failuresKey(key string) string {
	return fmt.Sprintf("%s:failures:%s", r.prefix, key)
}

func (r *RedisStore) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", r.prefix, key)
}

func (r *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	setKey := r.failuresKey(key)
	now := r.now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := r.redis.TxPipeline()
	// Remove old entries
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, setKey)
	pipe.PExpire(ctx, setKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis pipeline error: %w", err)
	}
	return int(count.Val()), nil
}

func (r *RedisStore) Lock(ctx context.Context, key string, d time.Duration) error {
	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, r.lockKey(key), r.now().Add(d).UnixMilli(), d)
	pipe.Del(ctx, r.failuresKey(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline error: %w", err)
	}
	return nil
}

func (r *RedisStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.redis.PTTL(ctx, r.lockKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// PTTL reports -2 for a missing key and -1 for one without expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *RedisStore) Reset(ctx context.Context, key string) error {
	return r.redis.Del(ctx, r.failuresKey(key), r.lockKey(key)).Err()
}

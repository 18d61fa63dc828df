package state

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in one Redis hash. Redis executes
// commands on a single thread, which gives the per-key serialization the
// Store contract promises.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Set(ctx context.Context, collection, key string, value []byte) error {
	if err := s.rdb.HSet(ctx, collection, key, value).Err(); err != nil {
		return errors.Wrapf(err, "hset %s/%s", collection, key)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	val, err := s.rdb.HGet(ctx, collection, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "hget %s/%s", collection, key)
	}
	return []byte(val), nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	if err := s.rdb.HDel(ctx, collection, key).Err(); err != nil {
		return errors.Wrapf(err, "hdel %s/%s", collection, key)
	}
	return nil
}

func (s *RedisStore) Collection(ctx context.Context, collection string) (map[string][]byte, error) {
	all, err := s.rdb.HGetAll(ctx, collection).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "hgetall %s", collection)
	}
	out := make(map[string][]byte, len(all))
	for k, v := range all {
		out[k] = []byte(v)
	}
	return out, nil
}

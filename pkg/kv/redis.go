package kv

import (
	"context"
	"errors"
	"time"

	"github.com/luxemarket/storefront-backend/pkg/redis"
)

type redisBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StateKey(owner, key string) string
}

// RedisStore scopes keys to one owner (a user id on the API server) and
// refreshes the TTL on every write.
type RedisStore struct {
	client redisBackend
	owner  string
	ttl    time.Duration
}

func NewRedisStore(client redisBackend, owner string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("kv: redis client is required")
	}
	if owner == "" {
		return nil, errors.New("kv: owner is required")
	}
	return &RedisStore{client: client, owner: owner, ttl: ttl}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	value, err := r.client.Get(ctx, r.client.StateKey(r.owner, key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return r.client.Set(ctx, r.client.StateKey(r.owner, key), value, r.ttl)
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.StateKey(r.owner, key))
}

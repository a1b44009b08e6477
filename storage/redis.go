package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// Redis is a [KV] backed by a Redis server. Keys are stored as
// prefix + ":" + key so several applications can share one database.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. A zero ttl stores keys without
// expiry.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	value, err := r.redis.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, unavailable("get", key, err)
	}

	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := r.redis.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return unavailable("del", key, err)
	}
	return nil
}

func unavailable(op, key string, err error) error {
	return oops.
		Code("STORAGE_REDIS_UNAVAILABLE").
		In("storage").
		With("backend", "redis").
		With("operation", op).
		With("key", key).
		Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
}

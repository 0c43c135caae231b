package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type RedisStorage struct {
	inner *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	return &RedisStorage{inner: client}, nil
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.inner.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read key %q", key)
	}
	return value, true, nil
}

// Set пишет без TTL: значение живёт до следующей перезаписи.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(s.inner.Set(ctx, key, value, 0).Err(), "failed to write key %q", key)
}

func (s *RedisStorage) Close() error {
	return s.inner.Close()
}

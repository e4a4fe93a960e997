package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Redis implementation of core.KVStore.
// All keys live in one hash so that Set and Remove run in a single MULTI.
type RedisStore struct {
	client    *redis.Client
	ownClient bool
	hash      string
	logger    *zap.Logger
}

// NewRedisStore creates a store on an existing client under the hash named prefix
func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		hash:   prefix + ":session",
		logger: logger,
	}
}

// NewRedisStoreFromAddr connects to addr and owns the resulting client
func NewRedisStoreFromAddr(ctx context.Context, addr, prefix string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis store at %s: %w", addr, err)
	}

	s := NewRedisStore(client, prefix, logger)
	s.ownClient = true
	return s, nil
}

func (s *RedisStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	res, err := s.client.HMGet(ctx, s.hash, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.hash, err)
	}

	for i, v := range res {
		if str, ok := v.(string); ok {
			values[keys[i]] = str
		}
	}
	return values, nil
}

func (s *RedisStore) Set(ctx context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range items {
			pipe.HSet(ctx, s.hash, k, v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.hash, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.hash, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", s.hash, err)
	}
	return nil
}

// Close closes the client when owned
func (s *RedisStore) Close() error {
	if s.ownClient {
		return s.client.Close()
	}
	return nil
}

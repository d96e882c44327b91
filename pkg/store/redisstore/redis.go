// Package redisstore provides a Redis-backed Store for the response cache.
package redisstore

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/mrchypark/nalssi/pkg/store"
)

const (
	dataKeyPrefix = "nalssi:data:"
	metaKeyPrefix = "nalssi:meta:"
)

// RedisStore is a Redis-based implementation of store.Store.
type RedisStore struct {
	client redis.UniversalClient
	logger log.Logger
}

var _ store.Store = (*RedisStore)(nil)

// New creates a new RedisStore.
func New(client redis.UniversalClient, logger log.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

// Get retrieves a cached value and its entry metadata from Redis.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, *store.Entry, error) {
	pipe := rs.client.Pipeline()
	metaCmd := pipe.Get(ctx, metaKeyPrefix+key)
	dataCmd := pipe.Get(ctx, dataKeyPrefix+key)

	if _, err := pipe.Exec(ctx); err != nil {
		if err == redis.Nil {
			return nil, nil, store.ErrNotFound
		}
		return nil, nil, err
	}

	metaBytes, err := metaCmd.Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil, store.ErrNotFound
		}
		return nil, nil, err
	}

	var entry store.Entry
	if err := json.Unmarshal(metaBytes, &entry); err != nil {
		return nil, nil, err
	}

	data, err := dataCmd.Bytes()
	if err != nil {
		return nil, nil, err
	}

	return data, &entry, nil
}

// Set stores a value and its entry metadata in Redis atomically.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, entry *store.Entry) error {
	metaBytes, err := json.Marshal(entry)
	if err != nil {
		level.Error(rs.logger).Log("msg", "failed to marshal cache entry", "key", key, "err", err)
		return err
	}

	_, err = rs.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, metaKeyPrefix+key, metaBytes, 0)
		pipe.Set(ctx, dataKeyPrefix+key, value, 0)
		return nil
	})
	if err != nil {
		level.Error(rs.logger).Log("msg", "failed to set cache entry in redis", "key", key, "err", err)
	}
	return err
}

// Delete removes a value and its entry metadata from Redis.
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	return rs.client.Del(ctx, metaKeyPrefix+key, dataKeyPrefix+key).Err()
}

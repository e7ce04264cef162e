package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const sessionKey = "cookai:session"

// RedisStore persists the session record under a single fixed Redis key.
// The record carries no TTL: a session survives until logout deletes it.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

// Read returns the stored record or ErrNoSession when the key is absent.
func (s *RedisStore) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}

		s.log.Error("failed to read session record from redis", slog.Any("error", err))
		return nil, fmt.Errorf("read session record: %w", err)
	}

	return data, nil
}

// Write replaces the stored record.
func (s *RedisStore) Write(ctx context.Context, record []byte) error {
	if err := s.client.Set(ctx, sessionKey, record, 0).Err(); err != nil {
		s.log.Error("failed to write session record to redis", slog.Any("error", err))
		return fmt.Errorf("write session record: %w", err)
	}

	return nil
}

// Delete removes the record key.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil {
		s.log.Error("failed to delete session record from redis", slog.Any("error", err))
		return fmt.Errorf("delete session record: %w", err)
	}

	return nil
}

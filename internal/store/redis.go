package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(conversationID string) string {
	return fmt.Sprintf("%s:lastread:%s", s.prefix, conversationID)
}

func (s *RedisStore) LastRead(ctx context.Context, conversationID string) (string, error) {
	v, err := s.client.Get(ctx, s.key(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisStore) SetLastRead(ctx context.Context, conversationID, messageID string) error {
	return s.client.Set(ctx, s.key(conversationID), messageID, 0).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists documents as JSON strings in Redis, one key per
// document, named "<collection>:<key>".
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves and unmarshals the document under collection/key.
func (s *RedisStore) Get(ctx context.Context, collection, key string, v any) error {
	data, err := s.client.Get(ctx, docKey(collection, key)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get document %s/%s: %w", collection, key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collection, key, err)
	}
	return nil
}

// Set stores v as JSON under collection/key. A positive TTL lets Redis
// expire the document (used for sessions).
func (s *RedisStore) Set(ctx context.Context, collection, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, key, err)
	}
	if err := s.client.Set(ctx, docKey(collection, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, key, err)
	}
	return nil
}

// Delete removes the document under collection/key. Missing documents are
// a no-op.
func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	if err := s.client.Del(ctx, docKey(collection, key)).Err(); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, key, err)
	}
	return nil
}

// Keys lists all document keys in a collection.
func (s *RedisStore) Keys(ctx context.Context, collection string) ([]string, error) {
	prefix := collection + ":"
	fullKeys, err := s.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}

	keys := make([]string, 0, len(fullKeys))
	for _, k := range fullKeys {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, nil
}

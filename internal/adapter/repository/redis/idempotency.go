package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// processingMarker locks a key while the first request is still in flight,
// before any response body exists to store.
const processingMarker = "processing"

// IdempotencyStore keeps replayed responses for mutating requests in Redis,
// keyed by the client's Idempotency-Key header.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// CheckAndSet reports whether key has been seen, claiming it atomically if
// not. A seen key returns the stored response (or the in-flight marker) so
// the caller can replay instead of re-executing the mutation.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	storageKey := s.prefix + key

	existing, err := s.client.Get(ctx, storageKey).Bytes()
	if err == nil {
		return true, existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return false, nil, err
	}

	if response != nil {
		if err := s.client.Set(ctx, storageKey, response, ttl).Err(); err != nil {
			return false, nil, err
		}
		return false, nil, nil
	}

	claimed, err := s.client.SetNX(ctx, storageKey, processingMarker, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if !claimed {
		// A concurrent duplicate won the SetNX race.
		existing, err := s.client.Get(ctx, storageKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, nil, err
		}
		return true, existing, nil
	}

	return false, nil, nil
}

// Update replaces the in-flight marker with the final response to replay.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

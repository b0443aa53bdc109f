package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtsk-dev/streamgate/internal/domain/model"
)

const (
	// probeCacheKeyPrefix is the prefix for probe cache keys in Redis.
	probeCacheKeyPrefix = "probe:"
)

// RedisMetadataCache implements MetadataCache using Redis as the backing store.
type RedisMetadataCache struct {
	client *redis.Client
}

// NewRedisMetadataCache creates a new Redis-backed probe cache.
func NewRedisMetadataCache(client *redis.Client) *RedisMetadataCache {
	return &RedisMetadataCache{
		client: client,
	}
}

// Get retrieves probe metadata from Redis.
// Returns nil, nil on cache miss.
func (c *RedisMetadataCache) Get(ctx context.Context, mediaID int64) (*model.MediaMetadata, error) {
	key := c.buildKey(mediaID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	// MediaMetadata carries no JSON tags of its own, so the wire form is
	// owned entirely by this package.
	var metadata model.MediaMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("deserialize metadata: %w", err)
	}

	return &metadata, nil
}

// Set stores probe metadata in Redis with the specified TTL.
func (c *RedisMetadataCache) Set(ctx context.Context, mediaID int64, metadata *model.MediaMetadata, ttl time.Duration) error {
	key := c.buildKey(mediaID)

	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("serialize metadata: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// buildKey constructs the Redis key for a media ID.
func (c *RedisMetadataCache) buildKey(mediaID int64) string {
	return probeCacheKeyPrefix + strconv.FormatInt(mediaID, 10)
}

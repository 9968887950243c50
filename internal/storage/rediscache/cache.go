// Package rediscache provides the packed trait word cache backed by Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/menagerie/internal/config"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
)

const packedKeyPrefix = "packed:"

// NewClient creates a Redis client from the given cache configuration.
func NewClient(cfg config.RedisConfig) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Cache implements collection.PackedCache: packed trait words keyed by token
// id, stored as fixed-width 0x hex. Entries expire after the configured TTL;
// the database row remains authoritative.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache creates a Cache with the given entry TTL. A zero ttl stores
// entries without expiry.
//
// Precondition: client must be non-nil; ttl must not be negative.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetPacked fetches the cached trait word for a token.
//
// Postcondition: A miss returns (zero, false, nil). A reachable cache holding
// a corrupt value reports an error so callers fall through to the store.
func (c *Cache) GetPacked(ctx context.Context, tokenID uint64) (uint256.Int, bool, error) {
	val, err := c.client.Get(ctx, packedKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uint256.Int{}, false, nil
		}
		return uint256.Int{}, false, fmt.Errorf("reading cached trait word: %w", err)
	}

	w, err := traits.ParseWord(val)
	if err != nil {
		return uint256.Int{}, false, fmt.Errorf("decoding cached trait word %q: %w", val, err)
	}
	return w, true, nil
}

// SetPacked stores the trait word for a token.
func (c *Cache) SetPacked(ctx context.Context, tokenID uint64, w uint256.Int) error {
	if err := c.client.Set(ctx, packedKey(tokenID), traits.FormatWord(w), c.ttl).Err(); err != nil {
		return fmt.Errorf("caching trait word: %w", err)
	}
	return nil
}

// Health checks that the cache is reachable within the given timeout.
func (c *Cache) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func packedKey(tokenID uint64) string {
	return fmt.Sprintf("%s%d", packedKeyPrefix, tokenID)
}

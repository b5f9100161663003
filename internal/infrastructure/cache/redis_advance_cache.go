package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultContractKeyPrefix = "advance:contract:"

// RedisAdvanceCache implements ContractCache using Redis. Suitable for
// distributed deployments where invalidations must reach every instance.
type RedisAdvanceCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisAdvanceCache creates a new Redis-backed contract cache
func NewRedisAdvanceCache(cfg RedisConfig) (*RedisAdvanceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAdvanceCache{
		client:    client,
		keyPrefix: defaultContractKeyPrefix,
	}, nil
}

// NewRedisAdvanceCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisAdvanceCacheWithClient(client *redis.Client, keyPrefix string) *RedisAdvanceCache {
	if keyPrefix == "" {
		keyPrefix = defaultContractKeyPrefix
	}
	return &RedisAdvanceCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *RedisAdvanceCache) key(id uuid.UUID) string {
	return c.keyPrefix + id.String()
}

// Get retrieves a contract from Redis. A miss is (nil, nil).
func (c *RedisAdvanceCache) Get(ctx context.Context, id uuid.UUID) (*advance.AdvanceContract, error) {
	payload, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached contract: %w", err)
	}

	var contract advance.AdvanceContract
	if err := json.Unmarshal(payload, &contract); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, nil
	}
	return &contract, nil
}

// Set stores a contract in Redis with the given TTL
func (c *RedisAdvanceCache) Set(ctx context.Context, contract *advance.AdvanceContract, ttl time.Duration) error {
	if contract == nil || ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(contract)
	if err != nil {
		return fmt.Errorf("failed to marshal contract for cache: %w", err)
	}

	if err := c.client.Set(ctx, c.key(contract.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache contract: %w", err)
	}
	return nil
}

// Invalidate removes a contract from Redis
func (c *RedisAdvanceCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached contract: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisAdvanceCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisAdvanceCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisAdvanceCache implements ContractCache
var _ appadvance.ContractCache = (*RedisAdvanceCache)(nil)

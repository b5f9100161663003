package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = time.Minute
)

// InMemoryAdvanceCache implements ContractCache using in-memory storage.
// Suitable for single-instance deployments; distributed deployments should
// use the Redis-backed cache so invalidations reach every instance.
type InMemoryAdvanceCache struct {
	contracts       sync.Map // map[uuid.UUID]*contractEntry
	cleanupInterval time.Duration
	logger          *zap.Logger
	stopCh          chan struct{} // Channel to stop the cleanup goroutine
	stopped         int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// contractEntry wraps a cached contract with expiration time
type contractEntry struct {
	contract  *advance.AdvanceContract
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *contractEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryAdvanceCacheOption is a functional option for configuring the cache
type InMemoryAdvanceCacheOption func(*InMemoryAdvanceCache)

// WithCleanupInterval sets how often expired entries are evicted
func WithCleanupInterval(interval time.Duration) InMemoryAdvanceCacheOption {
	return func(c *InMemoryAdvanceCache) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryAdvanceCacheOption {
	return func(c *InMemoryAdvanceCache) {
		c.logger = logger
	}
}

// NewInMemoryAdvanceCache creates a new in-memory contract cache
func NewInMemoryAdvanceCache(opts ...InMemoryAdvanceCacheOption) *InMemoryAdvanceCache {
	cache := &InMemoryAdvanceCache{
		cleanupInterval: defaultCleanupInterval,
		logger:          zap.NewNop(),
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a contract from cache. A miss is (nil, nil).
func (c *InMemoryAdvanceCache) Get(ctx context.Context, id uuid.UUID) (*advance.AdvanceContract, error) {
	if value, ok := c.contracts.Load(id); ok {
		entry := value.(*contractEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("cache hit for advance contract", zap.String("contract_id", id.String()))
			return entry.contract, nil
		}
		// Expired, remove from cache
		c.contracts.Delete(id)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("cache miss for advance contract", zap.String("contract_id", id.String()))
	return nil, nil
}

// Set stores a contract in cache
func (c *InMemoryAdvanceCache) Set(ctx context.Context, contract *advance.AdvanceContract, ttl time.Duration) error {
	if contract == nil || ttl <= 0 {
		return nil
	}

	c.contracts.Store(contract.ID, &contractEntry{
		contract:  contract,
		expiresAt: time.Now().Add(ttl),
	})
	c.logger.Debug("cached advance contract",
		zap.String("contract_id", contract.ID.String()),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate removes a contract from cache
func (c *InMemoryAdvanceCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	c.contracts.Delete(id)
	c.logger.Debug("invalidated cached advance contract", zap.String("contract_id", id.String()))
	return nil
}

// Close releases any resources held by the cache
func (c *InMemoryAdvanceCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryAdvanceCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *InMemoryAdvanceCache) Count() int {
	count := 0
	c.contracts.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryAdvanceCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryAdvanceCache) doCleanup() {
	removed := 0
	c.contracts.Range(func(key, value any) bool {
		if value.(*contractEntry).isExpired() {
			c.contracts.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("cleaned up expired contract cache entries", zap.Int("removed", removed))
	}
}

// Ensure InMemoryAdvanceCache implements ContractCache
var _ appadvance.ContractCache = (*InMemoryAdvanceCache)(nil)

package cache

import (
	"fmt"

	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ContractCacheFactory creates contract caches based on configuration
type ContractCacheFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// ContractCacheFactoryOption is a functional option for configuring the factory
type ContractCacheFactoryOption func(*ContractCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ContractCacheFactoryOption {
	return func(f *ContractCacheFactory) {
		f.logger = logger
	}
}

// NewContractCacheFactory creates a new factory
func NewContractCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...ContractCacheFactoryOption) *ContractCacheFactory {
	f := &ContractCacheFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateCache creates a contract cache for the configured backend
func (f *ContractCacheFactory) CreateCache() (appadvance.ContractCache, error) {
	switch f.cacheConfig.Backend {
	case config.CacheBackendRedis:
		cache, err := NewRedisAdvanceCache(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis contract cache: %w", err)
		}
		f.logger.Info("using Redis contract cache")
		return cache, nil
	case config.CacheBackendMemory:
		f.logger.Info("using in-memory contract cache")
		return NewInMemoryAdvanceCache(
			WithCleanupInterval(f.cacheConfig.CleanupInterval),
			WithInMemoryLogger(f.logger),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}

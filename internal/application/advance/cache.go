package advance

import (
	"context"
	"time"

	"github.com/agrifin/backend/internal/domain/advance"
	"github.com/google/uuid"
)

// ContractCache is a short-TTL read cache for advance contracts. Every
// mutation path invalidates the entry explicitly; a cache miss is (nil, nil).
type ContractCache interface {
	Get(ctx context.Context, id uuid.UUID) (*advance.AdvanceContract, error)
	Set(ctx context.Context, contract *advance.AdvanceContract, ttl time.Duration) error
	Invalidate(ctx context.Context, id uuid.UUID) error
	Close() error
}

// NoOpContractCache disables caching. Useful for tests.
type NoOpContractCache struct{}

// Get always misses.
func (NoOpContractCache) Get(context.Context, uuid.UUID) (*advance.AdvanceContract, error) {
	return nil, nil
}

// Set does nothing.
func (NoOpContractCache) Set(context.Context, *advance.AdvanceContract, time.Duration) error {
	return nil
}

// Invalidate does nothing.
func (NoOpContractCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

// Close does nothing.
func (NoOpContractCache) Close() error {
	return nil
}

var _ ContractCache = (*NoOpContractCache)(nil)

// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the GraphQL backend and the cache implementation.
package port

import (
	"context"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
)

// ProfileFetcher retrieves a trader's profile, including the initial balance.
type ProfileFetcher interface {
	GetTraderProfile(ctx context.Context, traderID string) (*domain.TraderProfile, error)
}

// TransactionLogFetcher retrieves the full trade history of a trader.
type TransactionLogFetcher interface {
	GetTransactionLogs(ctx context.Context, traderID string) ([]domain.TransactionLog, error)
}

// HealthChecker probes an upstream dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
	Delete(ctx context.Context, key string)
}
